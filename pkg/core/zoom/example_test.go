package zoom_test

import (
	"fmt"

	"github.com/matzehuels/timeline/pkg/core/zoom"
)

func ExampleResolve() {
	for _, id := range []string{"month-2024/2", "hour-2024/3/5 10"} {
		t, err := zoom.Resolve(id, zoom.Options{Wrap: true, ViewportWidth: 1200})
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(id, "->", t.Scale, t.Begin.Format("2006-01-02 15:04"), "..",
			t.End.Format("2006-01-02 15:04:05.000"), "grid", t.MinGridSize)
	}
	// Output:
	// month-2024/2 -> day 2024-02-01 00:00 .. 2024-02-29 23:59:59.999 grid 43
	// hour-2024/3/5 10 -> minute 2024-03-05 10:00 .. 2024-03-05 10:59:59.999 grid 20
}
