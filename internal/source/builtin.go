package source

// builtin is the default catalog. All entries are public services that
// require no credentials. Layer ids and candidate field keys track the
// upstream services; the engine itself never hardcodes either.
var builtin = []Descriptor{
	{
		Name:           "tiger-states",
		Label:          "States",
		Category:       CategoryBoundary,
		BaseURL:        "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer",
		LayerID:        0,
		GeometryKind:   KindPolygon,
		MaxRadiusMiles: 100,
		IDFields:       []string{"GEOID"},
		NameFields:     []string{"BASENAME", "NAME"},
	},
	{
		Name:           "tiger-counties",
		Label:          "Counties",
		Category:       CategoryBoundary,
		BaseURL:        "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer",
		LayerID:        1,
		GeometryKind:   KindPolygon,
		MaxRadiusMiles: 100,
		IDFields:       []string{"GEOID"},
		NameFields:     []string{"BASENAME", "NAME"},
	},
	{
		Name:           "tiger-tracts",
		Label:          "Census Tracts",
		Category:       CategoryBoundary,
		BaseURL:        "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/Tracts_Blocks/MapServer",
		LayerID:        0,
		GeometryKind:   KindPolygon,
		MaxRadiusMiles: 25,
		IDFields:       []string{"GEOID"},
		NameFields:     []string{"BASENAME", "NAME"},
	},
	{
		Name:           "tiger-places",
		Label:          "Incorporated Places",
		Category:       CategoryBoundary,
		BaseURL:        "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/Places_CouSub_ConCity_SubMCD/MapServer",
		LayerID:        4,
		GeometryKind:   KindPolygon,
		MaxRadiusMiles: 50,
		IDFields:       []string{"GEOID"},
		NameFields:     []string{"BASENAME", "NAME"},
	},
	{
		Name:           "tiger-zcta",
		Label:          "ZIP Code Tabulation Areas",
		Category:       CategoryBoundary,
		BaseURL:        "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/PUMA_TAD_TAZ_UGA_ZCTA/MapServer",
		LayerID:        1,
		GeometryKind:   KindPolygon,
		MaxRadiusMiles: 25,
		IDFields:       []string{"GEOID", "ZCTA5"},
		NameFields:     []string{"BASENAME"},
	},
	{
		Name:           "fema-flood-zones",
		Label:          "Flood Hazard Zones",
		Category:       CategoryHazard,
		BaseURL:        "https://hazards.fema.gov/arcgis/rest/services/public/NFHL/MapServer",
		LayerID:        28,
		GeometryKind:   KindPolygon,
		MaxRadiusMiles: 5,
		IDFields:       []string{"FLD_AR_ID"},
		NameFields:     []string{"FLD_ZONE"},
	},
	{
		Name:           "epa-frs-facilities",
		Label:          "EPA Regulated Facilities",
		Category:       CategoryEnvironment,
		BaseURL:        "https://geodata.epa.gov/arcgis/rest/services/OEI/FRS_INTERESTS/MapServer",
		LayerID:        0,
		GeometryKind:   KindPoint,
		MaxRadiusMiles: 10,
		IDFields:       []string{"REGISTRY_ID"},
		NameFields:     []string{"PRIMARY_NAME"},
	},
	{
		Name:           "usfws-wetlands",
		Label:          "Wetlands",
		Category:       CategoryEnvironment,
		BaseURL:        "https://fwspublicservices.wim.usgs.gov/wetlandsmapservice/rest/services/Wetlands/MapServer",
		LayerID:        0,
		GeometryKind:   KindPolygon,
		MaxRadiusMiles: 5,
		NameFields:     []string{"WETLAND_TYPE"},
	},
	{
		Name:             "hifld-hospitals",
		Label:            "Hospitals",
		Category:         CategoryInfrastructure,
		BaseURL:          "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/arcgis/rest/services/Hospitals_1/FeatureServer",
		LayerID:          0,
		GeometryKind:     KindPoint,
		MaxRadiusMiles:   50,
		SupportsContains: true,
		IDFields:         []string{"ID"},
		NameFields:       []string{"NAME"},
	},
	{
		Name:             "hifld-power-plants",
		Label:            "Power Plants",
		Category:         CategoryInfrastructure,
		BaseURL:          "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/arcgis/rest/services/Power_Plants/FeatureServer",
		LayerID:          0,
		GeometryKind:     KindPoint,
		MaxRadiusMiles:   50,
		SupportsContains: true,
		IDFields:         []string{"PLANT_CODE"},
		NameFields:       []string{"NAME"},
	},
	{
		Name:             "hifld-railroads",
		Label:            "Railroad Lines",
		Category:         CategoryInfrastructure,
		BaseURL:          "https://services1.arcgis.com/Hp6G80Pky0om7QvQ/arcgis/rest/services/North_American_Rail_Network_Lines/FeatureServer",
		LayerID:          0,
		GeometryKind:     KindPolyline,
		MaxRadiusMiles:   25,
		SupportsContains: true,
	},
	{
		Name:           "nhd-flowlines",
		Label:          "Rivers and Streams",
		Category:       CategoryHydrography,
		BaseURL:        "https://hydro.nationalmap.gov/arcgis/rest/services/nhd/MapServer",
		LayerID:        6,
		GeometryKind:   KindPolyline,
		MaxRadiusMiles: 10,
		IDFields:       []string{"PERMANENT_IDENTIFIER"},
		NameFields:     []string{"GNIS_NAME"},
	},
}

// Builtin returns a fresh registry holding the default catalog.
func Builtin() *Registry {
	r := NewRegistry()
	for _, d := range builtin {
		r.Register(d)
	}
	return r
}
