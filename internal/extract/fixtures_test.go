package extract

const listingPage = `<!DOCTYPE html>
<html>
<head>
<style>.price { color: red; }</style>
<script id="__ZAD_TARGETING__" type="application/json">{"listing_id": 70123456, "price": 440000, "price_actual": 450000, "property_type": " semi_detached ", "tenure": "Freehold", "num_beds": 3, "num_baths": 2, "num_recepts": 0, "has_epc": true, "has_floorplan": false, "size_sq_feet": "1,050", "display_address": "Elm Street, Wigan WN1", "outcode": "WN1", "branch_name": "Northwood Wigan", "brand_name": "Northwood", "chain_free": true}</script>
<script type="application/ld+json">{"@type": "Product", "name": "3 bed semi-detached house for sale", "offers": {"@type": "Offer", "price": 460000, "priceCurrency": "GBP"}}</script>
<script>window.__DATA__ = {"nearestStations":["Wigan Wallgate","Wigan North Western"],"nearestStationsInMiles":[0.34,0.512]};</script>
</head>
<body>
<div>Just added</div>
<div>24 Photos</div>
<div>1 Floor plan</div>
<h1>3 bed semi-detached house for sale</h1>
<address>12 Elm Street, Wigan WN1</address>
<ul><li>3 beds</li><li>2 bath</li><li>1 reception</li><li>1,050 sq. ft</li><li>£429 / sq. ft</li></ul>
<p>EPC Rating: c</p>
<p>Freehold</p>
<p>Council tax band</p><p>C</p>
<p>Ground rent</p><p>£150</p>
<h2>About this property</h2>
<p>A well presented family home.</p>
<p></p>
<p>Close to local schools and transport.</p>
<h2>Property timeline</h2>
<p>Listed</p><p>March 2025</p><p>£450,000</p>
<p>Sold</p><p>June 2019</p><p>£310,000</p>
<h3>Rooms</h3>
<p>Kitchen (3.50m x 2.10m)</p>
<p>Living Room (4.20m x 3.80m)</p>
</body>
</html>`

const searchPage = `<a href="https://www.zoopla.co.uk/for-sale/details/70000001/?search_identifier=abc">One</a>
<a href="/for-sale/details/70000002/">Two</a>
<a href="/for-sale/details/70000001/">One again</a>
{"listing":{"url":"https://www.zoopla.co.uk/for-sale/details/70000003/"}}
<a href="/to-rent/details/123/">Rental</a>`
