package domain

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapPoint is one plottable area aggregated from warning records: the area's
// coordinates plus every distinct warning kind announced for it.
type MapPoint struct {
	Area  string   `json:"area"`
	Geo   Geo      `json:"geo"`
	Kinds []string `json:"kinds"`
	Count int      `json:"count"`
}

// areaCoordinates maps JMA area names to representative coordinates
// (prefectural capitals). Warning areas are a closed set, so a fixed table
// serves instead of a remote geocoding API; names not present here are
// simply not plottable.
var areaCoordinates = map[string]Geo{
	"北海道":  {43.064, 141.347},
	"青森県":  {40.824, 140.740},
	"岩手県":  {39.704, 141.153},
	"宮城県":  {38.269, 140.872},
	"秋田県":  {39.719, 140.102},
	"山形県":  {38.240, 140.364},
	"福島県":  {37.750, 140.468},
	"茨城県":  {36.342, 140.447},
	"栃木県":  {36.566, 139.884},
	"群馬県":  {36.391, 139.060},
	"埼玉県":  {35.857, 139.649},
	"千葉県":  {35.605, 140.123},
	"東京都":  {35.690, 139.692},
	"神奈川県": {35.448, 139.642},
	"新潟県":  {37.902, 139.023},
	"富山県":  {36.695, 137.211},
	"石川県":  {36.594, 136.626},
	"福井県":  {36.065, 136.222},
	"山梨県":  {35.664, 138.568},
	"長野県":  {36.651, 138.181},
	"岐阜県":  {35.391, 136.722},
	"静岡県":  {34.977, 138.383},
	"愛知県":  {35.180, 136.907},
	"三重県":  {34.730, 136.509},
	"滋賀県":  {35.005, 135.869},
	"京都府":  {35.021, 135.756},
	"大阪府":  {34.686, 135.520},
	"兵庫県":  {34.691, 135.183},
	"奈良県":  {34.685, 135.833},
	"和歌山県": {34.226, 135.168},
	"鳥取県":  {35.504, 134.238},
	"島根県":  {35.472, 133.050},
	"岡山県":  {34.662, 133.935},
	"広島県":  {34.397, 132.460},
	"山口県":  {34.186, 131.471},
	"徳島県":  {34.066, 134.559},
	"香川県":  {34.340, 134.043},
	"愛媛県":  {33.842, 132.766},
	"高知県":  {33.560, 133.531},
	"福岡県":  {33.607, 130.418},
	"佐賀県":  {33.249, 130.300},
	"長崎県":  {32.745, 129.874},
	"熊本県":  {32.790, 130.742},
	"大分県":  {33.238, 131.613},
	"宮崎県":  {31.911, 131.424},
	"鹿児島県": {31.560, 130.558},
	"沖縄県":  {26.212, 127.681},
	// Common sub-prefectural forecast regions that appear as warning areas.
	"東京地方":   {35.690, 139.692},
	"伊豆諸島北部": {34.750, 139.360},
	"伊豆諸島南部": {33.110, 139.780},
	"小笠原諸島":  {27.094, 142.192},
	"奄美地方":   {28.378, 129.494},
	"沖縄本島地方": {26.212, 127.681},
	"大東島地方":  {25.829, 131.232},
	"宮古島地方":  {24.805, 125.281},
	"八重山地方":  {24.340, 124.156},
}

// LookupArea resolves a warning area name to coordinates. The second return
// is false for unknown names; unknown areas are excluded from map output,
// never treated as an error.
func LookupArea(name string) (Geo, bool) {
	g, ok := areaCoordinates[name]
	return g, ok
}

// BuildMapPoints aggregates warning records into plottable points, one per
// known area, each carrying the distinct kinds announced for that area.
// Synthetic fragments and unknown area names drop out here because their
// area text never resolves.
func BuildMapPoints(records []WarningRecord) []MapPoint {
	index := make(map[string]int)
	var points []MapPoint

	for _, r := range records {
		geo, ok := LookupArea(r.Area)
		if !ok {
			continue
		}
		i, seen := index[r.Area]
		if !seen {
			i = len(points)
			index[r.Area] = i
			points = append(points, MapPoint{Area: r.Area, Geo: geo})
		}
		points[i].Count++
		if !containsString(points[i].Kinds, r.Kind) {
			points[i].Kinds = append(points[i].Kinds, r.Kind)
		}
	}
	return points
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
