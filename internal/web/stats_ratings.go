package web

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"foosball/internal/back"

	"github.com/charmbracelet/log"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ratingsBinWidth is the width of a histogram bar, in conservative rating
// units.
const ratingsBinWidth = 2

const emptySVG = `<svg xmlns="http://www.w3.org/2000/svg" width="600" height="300"></svg>`

// statsRatings renders the distribution of the current conservative ratings
// of a role, offense by default.
func (s *Server) statsRatings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { log.Debugf("computed ratings stats in %s", time.Since(start)) }()

	role := back.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = back.RoleOffense
	}

	ratings, err := s.back.GetConservativeRatings(r.Context(), role)
	if err != nil {
		s.error(w, r, err, statusFromError(err))
		return
	}

	s.cache(w, "public", statsCacheDuration)
	w.Header().Set("Content-Type", "image/svg+xml")

	if len(ratings) == 0 {
		if _, err := w.Write([]byte(emptySVG)); err != nil {
			log.Errorf("unable to send response: %s", err)
		}
		return
	}

	bars, maxValue := getRatingsBars(ratings, chart.Style{
		FontColor:   drawing.ColorBlack,
		FillColor:   drawing.ColorFromHex("285577"),
		StrokeColor: drawing.ColorFromHex("4c7899"),
		StrokeWidth: 1,
	})

	graph := chart.BarChart{
		Height: 300,
		Width:  600,
		Canvas: chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{
			FillColor: chart.ColorTransparent,
		},
		YAxis: chart.YAxis{
			Ticks: []chart.Tick{
				{Value: 0},
				{Value: maxValue, Label: strconv.Itoa(int(math.Round(maxValue * 100))) + "%"},
			},
		},
		Bars: bars,
	}
	graph.BarWidth = (graph.Width - (len(bars) * graph.BarSpacing)) / len(bars)

	if err := graph.Render(chart.SVG, w); err != nil {
		log.Errorf("unable to render ratings chart: %s", err)
		return
	}
}

// getRatingsBars bins the ratings, bar values are the share of players in the
// bin.
func getRatingsBars(ratings []float64, barStyle chart.Style) ([]chart.Value, float64) {
	bins := make(map[int]int, 20)
	minBin, maxBin := math.MaxInt64, math.MinInt64
	maxValue := math.MinInt64

	for _, v := range ratings {
		b := int(math.Floor(v/ratingsBinWidth)) * ratingsBinWidth
		bins[b]++
		if b < minBin {
			minBin = b
		}
		if b > maxBin {
			maxBin = b
		}

		if bins[b] > maxValue {
			maxValue = bins[b]
		}
	}

	bars := make([]chart.Value, 0, len(bins))
	for i := minBin; i <= maxBin; i += ratingsBinWidth {
		bars = append(bars, chart.Value{
			Value: float64(bins[i]) / float64(len(ratings)),
			Label: strconv.Itoa(i),
			Style: barStyle,
		})
	}

	return bars, float64(maxValue) / float64(len(ratings))
}
