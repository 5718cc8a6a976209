// cmd/tools/prismctl/store.go
package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"prism-workers/internal/common/database"
	"prism-workers/internal/retrieval/store"

	"github.com/spf13/cobra"
)

var (
	inspectCourse string
	inspectProbe  string
	inspectSample int
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the evidence index",
}

var storeInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show document counts per course, sample chunks and an optional probe query",
	RunE:  runStoreInspect,
}

func init() {
	storeInspectCmd.Flags().StringVar(&inspectCourse, "course", "", "course to probe")
	storeInspectCmd.Flags().StringVar(&inspectProbe, "probe", "", "topic to run against --course")
	storeInspectCmd.Flags().IntVar(&inspectSample, "sample", 3, "number of unfiltered chunks to print")
}

func runStoreInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	exists, err := es.IndexExists(ctx, cfg.Retrieval.Index)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("index %s does not exist", cfg.Retrieval.Index)
	}

	s := store.NewElasticsearchStore(es.Client, cfg.Retrieval.Index, newLogger())
	out := cmd.OutOrStdout()

	stats, err := s.Stats(ctx, 50)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "index %s: %d chunks\n", stats.Index, stats.Documents)
	courses := make([]string, 0, len(stats.Courses))
	for c := range stats.Courses {
		courses = append(courses, c)
	}
	sort.Strings(courses)
	for _, c := range courses {
		fmt.Fprintf(out, "  %-24s %d\n", c, stats.Courses[c])
	}

	if inspectSample > 0 {
		sample, err := s.Sample(ctx, inspectSample)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nsample:")
		for _, c := range sample {
			fmt.Fprintf(out, "  [%s] %s p.%d: %.80s\n", c.CourseName, c.DocumentName, c.PageNumber, c.Content)
		}
	}

	if inspectProbe != "" {
		if inspectCourse == "" {
			return fmt.Errorf("--probe needs --course")
		}
		chunks, err := s.Query(ctx, inspectProbe, inspectCourse, cfg.Retrieval.TopK)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nprobe %q in %s: %d hits\n", inspectProbe, inspectCourse, len(chunks))
		for i, c := range chunks {
			fmt.Fprintf(out, "  %2d. %.2f %s p.%d\n", i+1, c.Score, c.DocumentName, c.PageNumber)
		}
	}
	return nil
}
