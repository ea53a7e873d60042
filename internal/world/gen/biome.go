package gen

import "image/color"

// Biome is a terrain category chosen from elevation and moisture.
type Biome uint8

const (
	Ocean Biome = iota
	Beach
	Scorched
	Tundra
	TemperateDesert
	Shrubland
	Grassland
	TemperateDeciduousForest
	TemperateRainForest
	SubtropicalDesert
	TropicalSeasonalForest
	TropicalRainForest
	Taiga
	Snow

	NumBiomes = int(Snow) + 1
)

var biomeNames = [NumBiomes]string{
	Ocean:                    "ocean",
	Beach:                    "beach",
	Scorched:                 "scorched",
	Tundra:                   "tundra",
	TemperateDesert:          "temperate_desert",
	Shrubland:                "shrubland",
	Grassland:                "grassland",
	TemperateDeciduousForest: "temperate_deciduous_forest",
	TemperateRainForest:      "temperate_rain_forest",
	SubtropicalDesert:        "subtropical_desert",
	TropicalSeasonalForest:   "tropical_seasonal_forest",
	TropicalRainForest:       "tropical_rain_forest",
	Taiga:                    "taiga",
	Snow:                     "snow",
}

var biomeColors = [NumBiomes]color.RGBA{
	Ocean:                    {68, 68, 122, 255},
	Beach:                    {160, 144, 119, 255},
	Scorched:                 {85, 85, 85, 255},
	Tundra:                   {187, 187, 170, 255},
	TemperateDesert:          {201, 210, 155, 255},
	Shrubland:                {136, 153, 119, 255},
	Grassland:                {136, 170, 85, 255},
	TemperateDeciduousForest: {103, 148, 89, 255},
	TemperateRainForest:      {68, 136, 85, 255},
	SubtropicalDesert:        {210, 185, 139, 255},
	TropicalSeasonalForest:   {85, 153, 68, 255},
	TropicalRainForest:       {51, 119, 85, 255},
	Taiga:                    {153, 170, 119, 255},
	Snow:                     {221, 221, 228, 255},
}

func (b Biome) String() string {
	if int(b) >= NumBiomes {
		return "unknown"
	}
	return biomeNames[b]
}

// Color returns the opaque base colour of the biome.
func (b Biome) Color() color.RGBA {
	if int(b) >= NumBiomes {
		return color.RGBA{A: 255}
	}
	return biomeColors[b]
}

// Classify maps an elevation/moisture pair to a biome. Bands are checked
// top to bottom and the first match wins.
//
//	Elevation  | Moisture bands
//	< 0.10     | Ocean
//	< 0.12     | Beach
//	> 0.80     | <.10 Scorched     <.50 Tundra       else Snow
//	> 0.60     | <.33 TempDesert   <.66 Shrubland    else Taiga
//	> 0.30     | <.16 TempDesert   <.50 Grassland    <.83 DeciduousForest  else TempRainForest
//	otherwise  | <.16 SubtropDesert <.33 Grassland   <.66 SeasonalForest   else TropRainForest
func Classify(e, m float64) Biome {
	if e < 0.1 {
		return Ocean
	}
	if e < 0.12 {
		return Beach
	}

	switch {
	case e > 0.8:
		switch {
		case m < 0.1:
			return Scorched
		case m < 0.5:
			return Tundra
		default:
			return Snow
		}
	case e > 0.6:
		switch {
		case m < 0.33:
			return TemperateDesert
		case m < 0.66:
			return Shrubland
		default:
			return Taiga
		}
	case e > 0.3:
		switch {
		case m < 0.16:
			return TemperateDesert
		case m < 0.50:
			return Grassland
		case m < 0.83:
			return TemperateDeciduousForest
		default:
			return TemperateRainForest
		}
	}

	switch {
	case m < 0.16:
		return SubtropicalDesert
	case m < 0.33:
		return Grassland
	case m < 0.66:
		return TropicalSeasonalForest
	default:
		return TropicalRainForest
	}
}
