package extract

import (
	"strings"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// adTargeting reads the __ZAD_TARGETING__ block.
func adTargeting(in Input) Result {
	block, ok := findBlock(adTargetingRe, in.Raw)
	if !ok {
		return Result{}
	}
	obj, err := decodeObject(block, in.RepairJSON)
	if err != nil {
		return Result{Err: err}
	}

	var p Partial
	p.Set(model.FieldListingID, truthyString(obj["listing_id"]))
	p.Set(model.FieldPrice, firstTruthy(obj, "price_actual", "price"))
	p.Set(model.FieldPropertyType, strings.TrimSpace(truthyString(obj["property_type"])))
	p.Set(model.FieldTenure, strings.ToLower(strings.TrimSpace(truthyString(obj["tenure"]))))
	p.Set(model.FieldBedrooms, truthyString(obj["num_beds"]))
	p.Set(model.FieldBathrooms, truthyString(obj["num_baths"]))
	p.Set(model.FieldReceptions, truthyString(obj["num_recepts"]))
	for _, flag := range []string{model.FieldHasEPC, model.FieldHasFloorplan} {
		if v, present := obj[flag]; present {
			p.Set(flag, flagString(v))
		}
	}
	p.Set(model.FieldSizeSqFeet, truthyString(obj["size_sq_feet"]))
	p.Set(model.FieldDisplayAddress, truthyString(obj["display_address"]))
	p.Set(model.FieldOutcode, truthyString(obj["outcode"]))
	p.Set(model.FieldAgent, firstTruthy(obj, "branch_name", "brand_name"))
	if v, present := obj[model.FieldChainFree]; present {
		p.Set(model.FieldChainFree, flagString(v))
	}
	return Result{Fields: p}
}

// ldJSON reads the first schema.org block. Its offer price replaces the
// ad-targeting price.
func ldJSON(in Input) Result {
	block, ok := findBlock(ldJSONRe, in.Raw)
	if !ok {
		return Result{}
	}
	obj, err := decodeObject(block, in.RepairJSON)
	if err != nil {
		return Result{Err: err}
	}

	var p Partial
	if offers, ok := obj["offers"].(map[string]any); ok {
		if price := truthyString(offers["price"]); price != "" {
			p.Overwrite(model.FieldPrice, price)
		}
	}
	if name := truthyString(obj["name"]); name != "" {
		p.Set(model.FieldTitle, name)
	}
	return Result{Fields: p}
}
