package artifact

// Voice is one entry of the static voice catalog.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

var catalog = []Voice{
	{ID: "ja-JP-NanamiNeural", Name: "Nanami", Gender: "Female"},
	{ID: "ja-JP-KeitaNeural", Name: "Keita", Gender: "Male"},
}

// Catalog returns a copy of the voice catalog in display order.
func Catalog() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)
	return out
}
