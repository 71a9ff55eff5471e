// Package todo finds TODO markers in source comments and reports where
// they are.
package todo

// Location is the position of a finding within a source file.
type Location struct {
	Line int `json:"line"` // 1-indexed
	Col  int `json:"col"`  // 1-indexed column of the owning comment
}

// Finding is a single TODO marker line.
type Finding struct {
	Text string   `json:"text"`
	Loc  Location `json:"loc"`
}
