// las-report renders charts for a LAS file: classification and return
// number histograms plus an elevation quantile curve as a single HTML
// page, and optionally an elevation histogram PNG.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/pointpack/internal/las/lasio"
	"github.com/banshee-data/pointpack/internal/las/report"
	"github.com/banshee-data/pointpack/internal/version"
)

var (
	htmlOut     = flag.String("html", "", "HTML report path (default: <input>.html)")
	pngOut      = flag.String("png", "", "Elevation histogram PNG path (optional)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println("las-report", version.String())
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: las-report [-html out.html] [-png out.png] file.las")
		os.Exit(2)
	}
	path := flag.Arg(0)
	html := *htmlOut
	if html == "" && *pngOut == "" {
		html = strings.TrimSuffix(path, ".las") + ".html"
	}

	f, err := lasio.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	if html != "" {
		w, err := os.Create(html)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", html, err)
		}
		if err := report.WriteHTML(w, f); err != nil {
			w.Close()
			log.Fatalf("Failed to render report: %v", err)
		}
		if err := w.Close(); err != nil {
			log.Fatalf("Failed to write %s: %v", html, err)
		}
		log.Printf("Wrote HTML report to %s", html)
	}

	if *pngOut != "" {
		if err := report.SaveElevationPNG(*pngOut, f); err != nil {
			log.Fatalf("Failed to render elevation histogram: %v", err)
		}
		log.Printf("Wrote elevation histogram to %s", *pngOut)
	}
}
