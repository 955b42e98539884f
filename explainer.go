// explainer.go
package main

import "strings"

// Explanation holds the title and text for a help topic.
type Explanation struct {
	Title       string
	Description string
}

const readingTheView = `

Reading the view
Each column is one level of the call tree, the root on the left. A band's height is its share of the root's total. Inside a band, its children are stacked in call order below the function's own (exclusive) part, which is left blank.`

// explainerMap describes each sample type in terms of the icicle.
var explainerMap = map[string]Explanation{
	"cpu": {
		Title: "CPU time",
		Description: `Bands measure time spent on CPU. A tall band with a tall blank gap is a function burning CPU itself; a tall band filled by its children only delegates.` + readingTheView,
	},
	"inuse_space": {
		Title: "Heap: in-use space",
		Description: `Bands measure memory still held when the profile was taken. Growth of a band across refreshes points at memory that is never released.` + readingTheView,
	},
	"alloc_space": {
		Title: "Heap: allocated space",
		Description: `Bands measure all memory ever allocated, freed or not. Tall bands are the functions that keep the garbage collector busy.` + readingTheView,
	},
	"goroutine": {
		Title: "Goroutines",
		Description: `Bands count goroutines parked in each call path. A single tall band usually means many goroutines waiting on the same thing.` + readingTheView,
	},
}

// getExplanationForView finds the help text for a sample type such as
// "cpu" or "alloc_space".
func getExplanationForView(sampleType string) Explanation {
	switch {
	case strings.Contains(sampleType, "cpu") || strings.Contains(sampleType, "samples"):
		return explainerMap["cpu"]
	case strings.Contains(sampleType, "inuse_space"):
		return explainerMap["inuse_space"]
	case strings.Contains(sampleType, "alloc_space"):
		return explainerMap["alloc_space"]
	case strings.Contains(sampleType, "goroutine"):
		return explainerMap["goroutine"]
	}
	return Explanation{
		Title:       sampleType,
		Description: "No specific explanation available for this sample type yet." + readingTheView,
	}
}
