package layout_test

import (
	"fmt"
	"time"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/core/scale"
)

func ExampleBuild() {
	cfg := layout.DefaultConfig()
	cfg.Scale = scale.Month
	cfg.Start, cfg.End = "2024-01-01", "2024-03-31"

	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	cats := []layout.Category{{ID: "dev"}}
	events := []layout.Event{
		{ID: "design", Category: "dev", Start: day(1, 8), End: day(2, 9)},
		{ID: "build", Category: "dev", Start: day(2, 1), End: day(3, 20)},
	}

	res, err := layout.Build(cfg, cats, events)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("grids:", len(res.Grid), "base:", res.Base)
	fmt.Println("size:", res.Width, "x", res.Height)
	for _, p := range res.Placements {
		fmt.Printf("%s: slot %d of %d, height %.1f\n", p.ID, p.Slot, p.Divisor, p.Geometry.Height)
	}
	// Output:
	// grids: 3 base: 29
	// size: 235.34 x 75
	// design: slot 0 of 2, height 35.5
	// build: slot 1 of 2, height 35.5
}
