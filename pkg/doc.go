// Package pkg holds the libraries behind the timeline tool.
//
// # Overview
//
// A timeline is a window of calendar time, a set of categories and a set of
// dated events. The libraries turn that into pixel geometry a front end can
// draw without any date arithmetic of its own. They are organized in layers:
//
//  1. [core] - the engine: scales, calendar decomposition, the coordinate
//     mapper, lane allocation, layout and zoom
//  2. [timeline] - the document format read from YAML, TOML or JSON
//  3. [pipeline] - orchestration: document to cached layout, zoom requests
//  4. [cache] and [store] - layout caching and timeline persistence
//  5. [render] - debug views of the lane allocator
//
// # Data flow
//
//	timeline document (yaml, toml, json)
//	         ↓
//	    [timeline] package (parse, resolve options)
//	         ↓
//	    [core/layout] package (window, grid, rows, lanes, ruler)
//	         ↓
//	    layout.Result as JSON
//
// A ruler bucket id from the result feeds [core/zoom], which narrows the
// document to that bucket at the next finer scale.
//
// # Quick Start
//
//	doc, _ := timeline.ReadFile("release.yaml")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Layout(ctx, doc)
//	for _, p := range res.Visible() {
//	    fmt.Println(p.ID, p.Geometry.X, p.Geometry.Width)
//	}
package pkg
