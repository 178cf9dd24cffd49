package dashboard

import (
	"fmt"
	"math"

	"github.com/David-Botos/form-ingress/pkg/report"
)

// coordinates are approximate country centers (lat, lon)
var coordinates = map[string][2]float64{
	"Cameroun":                         {7.3697, 12.3547},
	"République Démocratique du Congo": {-4.0383, 21.7587},
	"Côte d'Ivoire":                    {7.5400, -5.5471},
	"Bénin":                            {9.3077, 2.3158},
	"Togo":                             {8.6195, 0.8248},
	"Burkina Faso":                     {12.2383, -1.5616},
	"Mali":                             {17.5707, -3.9962},
	"Gabon":                            {-0.8037, 11.6094},
	"Sénégal":                          {14.4974, -14.4524},
	"Niger":                            {17.6078, 8.0817},
	"Congo":                            {-0.2280, 15.8277},
	"Ghana":                            {7.9465, -1.0232},
	"Nigeria":                          {9.0820, 8.6753},
	"France":                           {46.6034, 1.8883},
	"Maroc":                            {31.7917, -7.0926},
	"Algérie":                          {28.0339, 1.6596},
	"Tunisie":                          {33.8869, 9.5375},
}

// markers places the counted countries that have known coordinates
func markers(counts []report.Count) []Marker {
	out := make([]Marker, 0, len(counts))
	for _, c := range counts {
		pos, ok := coordinates[c.Label]
		if !ok {
			continue
		}
		out = append(out, Marker{
			Country: c.Label,
			Lat:     pos[0],
			Lon:     pos[1],
			Count:   c.Count,
			Radius:  math.Max(5, float64(c.Count)/10),
			Popup:   fmt.Sprintf("%s: %d participants", c.Label, c.Count),
		})
	}
	return out
}
