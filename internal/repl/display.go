package repl

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/paraflow/paraflow/internal/orchestrator"
	"github.com/paraflow/paraflow/internal/snapshot"
	"github.com/paraflow/paraflow/internal/types"
)

var categoryColors = map[types.Category]*color.Color{
	types.CategoryProjects:  color.New(color.FgGreen, color.Bold),
	types.CategoryAreas:     color.New(color.FgBlue, color.Bold),
	types.CategoryResources: color.New(color.FgYellow, color.Bold),
	types.CategoryArchives:  color.New(color.FgHiBlack, color.Bold),
}

// colorCategory renders a category with its display color.
func colorCategory(c types.Category) string {
	if cc, ok := categoryColors[c]; ok {
		return cc.Sprint(string(c))
	}
	return string(c)
}

// PrintResponse renders a classification response for terminal display.
// Shared by the REPL and the classify command.
func PrintResponse(resp *orchestrator.Response) {
	fmt.Printf("→ %s (confidence %.2f)\n", colorCategory(resp.Category), resp.Confidence)
	if resp.Reasoning != "" {
		fmt.Printf("  %s\n", resp.Reasoning)
	}
	if len(resp.KeywordTags) > 0 {
		fmt.Printf("  tags: %s\n", strings.Join(resp.KeywordTags, ", "))
	}
	if resp.ConflictDetected {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("  %s %s\n", yellow("conflict:"), resp.Outcome.Reason)
	}
	if resp.RequiresReview {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Printf("  %s\n", red("flagged for review"))
	}
	if resp.SnapshotID != "" {
		fmt.Printf("  snapshot: %s\n", resp.SnapshotID)
	}
}

// PrintSnapshotLine renders one snapshot as a single history line.
func PrintSnapshotLine(snap *types.Snapshot) {
	review := ""
	if snap.Outcome.RequiresReview {
		review = color.New(color.FgRed).Sprint(" [review]")
	}
	preview := snap.TextPrefix
	if runes := []rune(preview); len(runes) > 40 {
		preview = string(runes[:40]) + "..."
	}
	fmt.Printf("%s  %s  %.2f%s  %s\n",
		snap.ID, colorCategory(snap.Outcome.FinalCategory), snap.Outcome.Confidence, review, preview)
}

// PrintSnapshot renders a full snapshot.
func PrintSnapshot(snap *types.Snapshot) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Printf("%s %s\n", bold("Snapshot"), snap.ID)
	fmt.Printf("  created:  %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  text:     %s\n", snap.TextPrefix)
	fmt.Printf("  decision: %s (confidence %.2f, gap %+.2f, %s)\n",
		colorCategory(snap.Outcome.FinalCategory), snap.Outcome.Confidence,
		snap.Outcome.ConfidenceGap, snap.Outcome.ResolutionMethod)
	fmt.Printf("  reason:   %s\n", snap.Outcome.Reason)
	fmt.Printf("  primary:   %s %.2f  %s\n", snap.Primary.Category, snap.Primary.Confidence, snap.Primary.Reasoning)
	secondaryOpinion := "no keywords matched"
	if len(snap.Secondary.Tags) > 0 {
		secondaryOpinion = strings.Join(snap.Secondary.Tags, ", ")
	}
	fmt.Printf("  secondary: %.2f  %s\n", snap.Secondary.Confidence, secondaryOpinion)
	for key, value := range snap.Metadata {
		fmt.Printf("  meta:     %s=%s\n", key, value)
	}
}

// PrintDiff renders a snapshot comparison.
func PrintDiff(diff *snapshot.Diff) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s → %s\n", bold("Compare"), diff.FromID, diff.ToID)

	if !diff.Drifted {
		fmt.Println("  no drift: outcomes are identical")
		return
	}
	if diff.CategoryChanged {
		fmt.Printf("  category:   %s → %s\n", colorCategory(diff.FromCategory), colorCategory(diff.ToCategory))
	}
	if diff.ConfidenceDelta != 0 {
		fmt.Printf("  confidence: %+.2f\n", diff.ConfidenceDelta)
	}
	if diff.ConflictChanged {
		fmt.Println("  conflict flag changed")
	}
	if diff.ReviewChanged {
		fmt.Println("  review flag changed")
	}
}
