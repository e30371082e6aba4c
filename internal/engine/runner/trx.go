package runner

import (
	"encoding/xml"
	"os"
	"strings"
)

// trxFile mirrors the slice of the structured results artifact we care
// about: the per-test captured stdout. Everything else in the document is
// harness bookkeeping.
type trxFile struct {
	XMLName xml.Name `xml:"TestRun"`
	Results struct {
		UnitTestResults []struct {
			TestName string `xml:"testName,attr"`
			Output   struct {
				StdOut string `xml:"StdOut"`
			} `xml:"Output"`
		} `xml:"UnitTestResult"`
	} `xml:"Results"`
}

// ExtractConsoleOutput reads the structured results artifact and returns only
// the program's own console writes, concatenated in document order. An absent
// artifact yields an empty string and the error for the caller to log.
func ExtractConsoleOutput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var doc trxFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", err
	}
	var parts []string
	for _, r := range doc.Results.UnitTestResults {
		out := strings.TrimSpace(r.Output.StdOut)
		if out == "" {
			continue
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n"), nil
}
