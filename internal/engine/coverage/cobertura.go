package coverage

import (
	"encoding/xml"
	"path/filepath"
	"sort"

	"testroyale/internal/engine/result"
)

// coberturaDoc mirrors the slice of the cobertura schema we read: document
// level rates plus the per-line hit blocks of each class.
type coberturaDoc struct {
	XMLName    xml.Name `xml:"coverage"`
	LineRate   float64  `xml:"line-rate,attr"`
	BranchRate float64  `xml:"branch-rate,attr"`
	Packages   struct {
		Packages []struct {
			Classes struct {
				Classes []struct {
					Filename string `xml:"filename,attr"`
					Lines    struct {
						Lines []struct {
							Number int `xml:"number,attr"`
							Hits   int `xml:"hits,attr"`
						} `xml:"line"`
					} `xml:"lines"`
				} `xml:"class"`
			} `xml:"classes"`
		} `xml:"package"`
	} `xml:"packages"`
}

// ParseCobertura extracts the document rates (scaled to percent) and the
// per-line hits for the class entries matching refFileName. A line is covered
// iff its hit count is positive; line numbers outside the physical line count
// of the reference file are dropped. maxLine <= 0 disables the bound check.
func ParseCobertura(data []byte, refFileName string, maxLine int) (result.CoverageReport, error) {
	var doc coberturaDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return result.CoverageReport{}, err
	}

	hits := make(map[int]bool)
	for _, pkg := range doc.Packages.Packages {
		for _, class := range pkg.Classes.Classes {
			if filepath.Base(class.Filename) != refFileName {
				continue
			}
			for _, line := range class.Lines.Lines {
				if line.Number < 1 {
					continue
				}
				if maxLine > 0 && line.Number > maxLine {
					continue
				}
				hits[line.Number] = hits[line.Number] || line.Hits > 0
			}
		}
	}

	perLine := make([]result.LineHit, 0, len(hits))
	for number, covered := range hits {
		perLine = append(perLine, result.LineHit{LineNumber: number, Covered: covered})
	}
	sort.Slice(perLine, func(i, j int) bool { return perLine[i].LineNumber < perLine[j].LineNumber })

	return result.CoverageReport{
		OK:                true,
		LineRatePercent:   doc.LineRate * 100,
		BranchRatePercent: doc.BranchRate * 100,
		PerLine:           perLine,
	}, nil
}
