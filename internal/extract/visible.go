package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/normalize"
)

var (
	statusRe       = regexp.MustCompile(`(?i)\b(Just added|Reduced|New listing)\b`)
	photosRe       = regexp.MustCompile(`(?i)(\d+)\s*Photos?`)
	floorplansRe   = regexp.MustCompile(`(?i)(\d+)\s*Floor plan`)
	epcRe          = regexp.MustCompile(`(?i)\bEPC\s*Rating:\s*([A-G])\b`)
	addressRe      = regexp.MustCompile(`(?i)for sale\s*\n\s*([^\n]+)`)
	bedsRe         = regexp.MustCompile(`(?i)\b(\d+)\s*beds?\b`)
	bathsRe        = regexp.MustCompile(`(?i)\b(\d+)\s*bath\b`)
	receptionsRe   = regexp.MustCompile(`(?i)\b(\d+)\s*receptions?\b`)
	floorAreaRe    = regexp.MustCompile(`(?i)([\d,]{3,7})\s*sq\.\s*ft`)
	pricePerSqftRe = regexp.MustCompile(`(?i)£\s*(\d+)\s*/\s*sq\.\s*ft`)
	tenureRe       = regexp.MustCompile(`(?i)\b(Freehold|Leasehold)\b`)
	agentLogoOfRe  = regexp.MustCompile(`Logo of\s+([A-Za-z &]+)`)
	agentLineRe    = regexp.MustCompile(`\n\s*([A-Z][A-Za-z &]{2,})\s*\n\s*Logo`)
	councilTaxRe   = regexp.MustCompile(`(?i)Council tax band\s*\n\s*([A-H])\b`)
	groundRentRe   = regexp.MustCompile(`(?i)Ground rent\s*\n?\s*£\s*([0-9,]+)`)
	roomRe         = regexp.MustCompile(`([A-Za-z ]+)\s*\((\d+\.\d+)m\s*x\s*(\d+\.\d+)m\)`)
	listedRe       = regexp.MustCompile(`(?i)Listed\s*\n\s*([A-Za-z]+\s+\d{4})\s*\n\s*£\s*([\d,]+)`)
	soldRe         = regexp.MustCompile(`(?i)Sold\s*\n\s*([A-Za-z]+\s+\d{4})\s*\n\s*£\s*([\d,]+)`)
)

const aboutMarker = "About this property"

// aboutStopMarkers end the "About this property" block.
var aboutStopMarkers = []string{
	"Read full description",
	"Local area information",
	"Stations",
	"Schools",
	"Property timeline",
	"More information",
	"Report this listing",
}

// visibleText applies independent pattern rules to the rendered text.
func visibleText(in Input) Result {
	txt := in.Text
	var p Partial

	if m := statusRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldStatus, m[1])
	}
	setFirst(&p, model.FieldNumberOfPhotos, photosRe, txt)
	setFirst(&p, model.FieldNumberOfFloorplan, floorplansRe, txt)

	if m := epcRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldEPCRating, strings.ToUpper(m[1]))
		p.Set(model.FieldHasEPC, "True")
	}
	if m := addressRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldAddress, strings.TrimSpace(m[1]))
	}

	setFirst(&p, model.FieldBedrooms, bedsRe, txt)
	setFirst(&p, model.FieldBathrooms, bathsRe, txt)
	setFirst(&p, model.FieldReceptions, receptionsRe, txt)

	if m := floorAreaRe.FindStringSubmatch(txt); m != nil {
		if n, ok := normalize.Int(m[1]); ok && n != 0 {
			p.Set(model.FieldSizeSqFeet, strconv.Itoa(n))
		}
	}
	if m := pricePerSqftRe.FindStringSubmatch(txt); m != nil {
		if n, ok := normalize.Int(m[1]); ok {
			p.Set(model.FieldPricePerSqft, strconv.Itoa(n))
		}
	}
	if m := tenureRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldTenure, strings.ToLower(m[1]))
	}
	if agent := agentName(txt); agent != "" {
		p.Set(model.FieldAgent, agent)
	}
	if m := councilTaxRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldCouncilTaxBand, strings.ToUpper(m[1]))
	}
	if m := groundRentRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldGroundRent, "£"+m[1])
	}

	p = append(p, rooms(txt)...)

	if m := listedRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldListedDate, m[1])
		p.Set(model.FieldListedPrice, "£"+m[2])
	}
	if m := soldRe.FindStringSubmatch(txt); m != nil {
		p.Set(model.FieldSoldDate, m[1])
		p.Set(model.FieldSoldPrice, "£"+m[2])
	}
	if about := aboutProperty(txt); about != "" {
		p.Set(model.FieldAboutProperty, about)
	}
	return Result{Fields: p}
}

func setFirst(p *Partial, key string, re *regexp.Regexp, txt string) {
	if m := re.FindStringSubmatch(txt); m != nil {
		p.Set(key, m[1])
	}
}

func agentName(txt string) string {
	if m := agentLogoOfRe.FindStringSubmatch(txt); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	if m := agentLineRe.FindStringSubmatch(txt); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// rooms emits one room_<slug>_m field per distinct room name. A repeated
// name keeps its last dimensions.
func rooms(txt string) Partial {
	var order []string
	dims := make(map[string]string)
	for _, m := range roomRe.FindAllStringSubmatch(txt, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		key := model.RoomField(name)
		if _, seen := dims[key]; !seen {
			order = append(order, key)
		}
		dims[key] = m[2] + "m x " + m[3] + "m"
	}

	var p Partial
	for _, key := range order {
		p.Set(key, dims[key])
	}
	return p
}

// aboutProperty captures the text between the "About this property" marker
// and the first section boundary.
func aboutProperty(txt string) string {
	idx := strings.Index(txt, aboutMarker)
	if idx < 0 {
		return ""
	}
	chunk := txt[idx+len(aboutMarker):]

	stop := len(chunk)
	for _, marker := range aboutStopMarkers {
		if p := strings.Index(chunk, marker); p >= 0 && p < stop {
			stop = p
		}
	}
	return normalize.CollapseBlankLines(chunk[:stop])
}
