package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Asif-shah786/zoopla-scraper/internal/export"
	"github.com/Asif-shah786/zoopla-scraper/internal/extract"
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

var (
	extractFile string
	extractText string
	extractPOI  string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a property record from a saved listing page",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd.OutOrStdout(), buildEngine(cfg), extractFile, extractText, extractPOI)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFile, "file", "", "listing page HTML")
	extractCmd.Flags().StringVar(&extractText, "text", "", "pre-rendered page text (optional)")
	extractCmd.Flags().StringVar(&extractPOI, "poi", "", "JSON file of nearby points of interest (optional)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(w io.Writer, engine *extract.Engine, htmlPath, textPath, poiPath string) error {
	if htmlPath == "" && textPath == "" {
		return eris.New("extract: --file or --text is required")
	}

	var doc model.Document
	if htmlPath != "" {
		raw, err := os.ReadFile(htmlPath)
		if err != nil {
			return eris.Wrapf(err, "extract: read %s", htmlPath)
		}
		doc.Raw = string(raw)
	}
	if textPath != "" {
		text, err := os.ReadFile(textPath)
		if err != nil {
			return eris.Wrapf(err, "extract: read %s", textPath)
		}
		doc.Text = string(text)
	}

	var pts []model.Point
	if poiPath != "" {
		if err := export.ReadJSON(poiPath, &pts); err != nil {
			return eris.Wrap(err, "extract: points of interest")
		}
	}

	return printJSON(w, engine.Extract(doc, pts))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
