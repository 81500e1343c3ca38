package app

import (
	"math"
	"sort"
)

// Severity is the three-tier classification of a risk score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ClassifyScore is the single severity predicate used everywhere a score is
// bucketed: 4 and above is high, exactly 3 is medium, everything below low.
func ClassifyScore(score int) Severity {
	switch {
	case score >= 4:
		return SeverityHigh
	case score == 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type RiskCounts struct {
	Low    int
	Medium int
	High   int
}

func (c RiskCounts) Total() int { return c.Low + c.Medium + c.High }

type ReasonCount struct {
	Reason string
	Count  int
}

type FileScore struct {
	File  string
	Score int
}

// RiskSummary is the derived analytics over every snippet seen so far in
// the session.
type RiskSummary struct {
	Snippets int
	Counts   RiskCounts

	// Percentages. Low and medium are rounded; high takes all the rounding
	// slack so the three always sum to 100.
	LowPct    int
	MediumPct int
	HighPct   int

	// TopReasons: descending by occurrence count, first-seen order on ties,
	// at most four entries.
	TopReasons []ReasonCount

	// TopFiles: descending by the maximum score seen for the file (a file
	// is as risky as its worst flagged line), first-seen order on ties, at
	// most five entries.
	TopFiles []FileScore

	// MaxFileScore is the top file's score, or 1 when there are no files;
	// used to normalize relative bar widths.
	MaxFileScore int
}

const (
	topReasonLimit = 4
	topFileLimit   = 5
)

// Aggregate recomputes the risk summary from scratch. It never mutates its
// input and keeps no cached state, so it is safe to call repeatedly and
// concurrently with reads of the history.
func Aggregate(snippets []Snippet) RiskSummary {
	sum := RiskSummary{Snippets: len(snippets)}

	reasonIdx := make(map[string]int)
	fileIdx := make(map[string]int)
	var reasons []ReasonCount
	var files []FileScore

	for _, sn := range snippets {
		switch ClassifyScore(sn.Risk.Score) {
		case SeverityHigh:
			sum.Counts.High++
		case SeverityMedium:
			sum.Counts.Medium++
		default:
			sum.Counts.Low++
		}

		if i, ok := reasonIdx[sn.Risk.Reason]; ok {
			reasons[i].Count++
		} else {
			reasonIdx[sn.Risk.Reason] = len(reasons)
			reasons = append(reasons, ReasonCount{Reason: sn.Risk.Reason, Count: 1})
		}

		if i, ok := fileIdx[sn.File]; ok {
			if sn.Risk.Score > files[i].Score {
				files[i].Score = sn.Risk.Score
			}
		} else {
			fileIdx[sn.File] = len(files)
			files = append(files, FileScore{File: sn.File, Score: sn.Risk.Score})
		}
	}

	total := sum.Counts.Total()
	if total == 0 {
		// Avoids division by zero in percentage displays.
		total = 1
	}
	sum.LowPct = int(math.Round(100 * float64(sum.Counts.Low) / float64(total)))
	sum.MediumPct = int(math.Round(100 * float64(sum.Counts.Medium) / float64(total)))
	sum.HighPct = 100 - sum.LowPct - sum.MediumPct

	sort.SliceStable(reasons, func(i, j int) bool { return reasons[i].Count > reasons[j].Count })
	if len(reasons) > topReasonLimit {
		reasons = reasons[:topReasonLimit]
	}
	sum.TopReasons = reasons

	sort.SliceStable(files, func(i, j int) bool { return files[i].Score > files[j].Score })
	if len(files) > topFileLimit {
		files = files[:topFileLimit]
	}
	sum.TopFiles = files

	sum.MaxFileScore = 1
	if len(files) > 0 && files[0].Score > 1 {
		sum.MaxFileScore = files[0].Score
	}

	return sum
}
