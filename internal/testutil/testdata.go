package testutil

import "embed"

//go:embed testdata
var testdataFS embed.FS

// ReadFixture reads one of the embedded txtar scenario fixtures by file name
// (for example "valid_ab.txtar").
func ReadFixture(name string) ([]byte, error) {
	return testdataFS.ReadFile("testdata/" + name)
}
