package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testroyale/internal/engine/result"
)

const sampleCobertura = `<?xml version="1.0" encoding="utf-8"?>
<coverage line-rate="0.75" branch-rate="0.5" version="1.9" timestamp="1700000000">
  <packages>
    <package name="RefProject">
      <classes>
        <class name="Calculator" filename="RefProject/Reference.cs">
          <lines>
            <line number="3" hits="2" branch="false"/>
            <line number="4" hits="0" branch="false"/>
            <line number="7" hits="1" branch="true" condition-coverage="50% (1/2)"/>
          </lines>
        </class>
        <class name="Calculator/Inner" filename="RefProject/Reference.cs">
          <lines>
            <line number="4" hits="3" branch="false"/>
            <line number="99" hits="1" branch="false"/>
          </lines>
        </class>
        <class name="Helper" filename="RefProject/Helper.cs">
          <lines>
            <line number="1" hits="5" branch="false"/>
          </lines>
        </class>
      </classes>
    </package>
  </packages>
</coverage>`

func TestParseCobertura(t *testing.T) {
	report, err := ParseCobertura([]byte(sampleCobertura), "Reference.cs", 20)
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.InDelta(t, 75.0, report.LineRatePercent, 1e-9)
	assert.InDelta(t, 50.0, report.BranchRatePercent, 1e-9)

	// Line 4 appears in two class blocks (0 hits and 3 hits); the merge keeps
	// it covered. Line 99 exceeds the physical line bound and is dropped, and
	// Helper.cs lines never match the reference file.
	assert.Equal(t, []result.LineHit{
		{LineNumber: 3, Covered: true},
		{LineNumber: 4, Covered: true},
		{LineNumber: 7, Covered: true},
	}, report.PerLine)
}

func TestParseCoberturaNoBoundCheck(t *testing.T) {
	report, err := ParseCobertura([]byte(sampleCobertura), "Reference.cs", 0)
	require.NoError(t, err)
	assert.Len(t, report.PerLine, 4)
}

func TestParseCoberturaNoMatchingClass(t *testing.T) {
	report, err := ParseCobertura([]byte(sampleCobertura), "Other.cs", 0)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Empty(t, report.PerLine)
	assert.InDelta(t, 75.0, report.LineRatePercent, 1e-9)
}

func TestParseCoberturaMalformed(t *testing.T) {
	_, err := ParseCobertura([]byte("<coverage><unclosed"), "Reference.cs", 0)
	require.Error(t, err)
}
