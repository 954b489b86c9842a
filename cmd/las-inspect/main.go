// las-inspect prints the header and point schema of a LAS file, with
// optional per-field statistics and inventory persistence.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/pointpack/internal/las/lasio"
	"github.com/banshee-data/pointpack/internal/las/packing"
	"github.com/banshee-data/pointpack/internal/las/stats"
	store "github.com/banshee-data/pointpack/internal/las/storage/sqlite"
	"github.com/banshee-data/pointpack/internal/version"
)

var (
	showStats   = flag.Bool("stats", false, "Compute per-field statistics")
	dbFile      = flag.String("db", "", "Record the ingest run in this inventory database")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println("las-inspect", version.String())
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: las-inspect [-stats] [-db inventory.db] file.las")
		os.Exit(2)
	}
	path := flag.Arg(0)

	f, err := lasio.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	h := f.Header
	pf, err := f.Format()
	if err != nil {
		log.Fatalf("Failed to resolve point format: %v", err)
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  version:      %d.%d\n", h.VersionMajor, h.VersionMinor)
	fmt.Printf("  system id:    %s\n", h.SystemID)
	fmt.Printf("  software:     %s\n", h.Software)
	fmt.Printf("  created:      day %d of %d\n", h.CreationDay, h.CreationYear)
	fmt.Printf("  point format: %d (%d-byte records)\n", h.PointFormatID, h.RecordLength)
	fmt.Printf("  points:       %s\n", humanize.Comma(int64(h.PointCount)))
	fmt.Printf("  vlrs:         %d\n", len(f.VLRs))
	fmt.Printf("  scale:        %g %g %g\n", h.Scale[0], h.Scale[1], h.Scale[2])
	fmt.Printf("  offset:       %g %g %g\n", h.Offset[0], h.Offset[1], h.Offset[2])
	fmt.Printf("  bounds:       x [%g, %g]  y [%g, %g]  z [%g, %g]\n",
		h.Min[0], h.Max[0], h.Min[1], h.Max[1], h.Min[2], h.Max[2])

	fmt.Printf("\nschema:\n")
	for _, field := range pf.Fields() {
		fmt.Printf("  %-22s %s\n", field.Name, field.Type)
		cf, ok := pf.Composed(field.Name)
		if !ok {
			continue
		}
		for _, sf := range cf.SubFields {
			fmt.Printf("    %-20s mask %#04x\n", sf.Name, sf.Mask)
		}
	}

	var summaries []stats.FieldSummary
	if *showStats || *dbFile != "" {
		expanded, err := packing.UnpackRecords(f.Points, pf)
		if err != nil {
			log.Fatalf("Failed to unpack records: %v", err)
		}
		summaries = stats.Summarize(expanded)
	}

	if *showStats {
		fmt.Printf("\nfield statistics:\n")
		fmt.Printf("  %-22s %14s %14s %14s %14s %9s\n", "field", "min", "max", "mean", "stddev", "distinct")
		for _, s := range summaries {
			distinct := ""
			if s.Distinct > 0 {
				distinct = fmt.Sprintf("%9d", s.Distinct)
			}
			fmt.Printf("  %-22s %14.3f %14.3f %14.3f %14.3f %s\n",
				s.Name, s.Min, s.Max, s.Mean, s.StdDev, distinct)
		}
	}

	if *dbFile != "" {
		inv, err := store.Open(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open inventory database: %v", err)
		}
		defer inv.Close()

		run := &store.IngestRun{
			SourcePath:   path,
			LASVersion:   fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor),
			PointFormat:  int(h.PointFormatID),
			RecordLength: int(h.RecordLength),
			PointCount:   int64(h.PointCount),
		}
		if err := inv.InsertRun(run); err != nil {
			log.Fatalf("Failed to record ingest run: %v", err)
		}
		if err := inv.InsertFieldSummaries(run.RunID, summaries); err != nil {
			log.Fatalf("Failed to record field summaries: %v", err)
		}
		log.Printf("Recorded ingest run %s in %s", run.RunID, *dbFile)
	}
}
