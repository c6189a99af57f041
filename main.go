package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	browser "github.com/next-exp/browser_go/pkg"
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	extract := flag.Bool("extract", false, "Run batch feature extraction and exit")
	flag.Parse()

	config, err := browser.LoadConfiguration(*configFilename)
	if err != nil {
		fmt.Println("Error reading configuration file:", err)
		return
	}

	log := NewLogger(config.Verbosity)
	browser.SetLogger(log)
	if config.Verbosity > 0 {
		browser.PrintConfiguration(config, log)
	}

	var params browser.ParameterDatabase
	if !config.NoDB {
		dbConn, err := browser.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			log.Error(fmt.Sprintf("Error connecting to database: %v", err))
			return
		}
		defer dbConn.Close()
		params = browser.NewSQLParams(dbConn, config.RunNumber)
	}

	reader := browser.NewHDF5EventReader(config.Channel)

	if *extract {
		runExtraction(config, reader, params, log)
		return
	}

	renderer := browser.NewPlotRenderer(
		fmt.Sprintf("run %d, %s", config.RunNumber, config.Channel),
		"sample", "amplitude [adc]")
	wb, err := browser.NewWaveformBrowser(config, reader, params, renderer)
	if err != nil {
		log.Error(fmt.Sprintf("Error building browser: %v", err))
		return
	}
	defer wb.Close()

	log.Info(fmt.Sprintf("%d files, %d records, %d selected",
		wb.View().NumFiles(), wb.View().TotalRecords(), len(wb.Selection())), "main")
	runInteractive(wb, renderer, config, log)
}

func runExtraction(config browser.Configuration, reader browser.FileReader, params browser.ParameterDatabase, log Logger) {
	if config.DSPConfig == "" || config.FileOut == "" {
		log.Error("Extraction needs dsp_config and file_out set")
		return
	}

	view, err := browser.NewDatasetView(config.FilePattern, reader, config.LRUBound)
	if err != nil {
		log.Error(fmt.Sprintf("Error opening dataset: %v", err))
		return
	}
	defer view.Close()

	var aux *browser.AuxTable
	if config.AuxFile != "" {
		aux, err = browser.LoadAuxTable(config.AuxFile, config.AuxGroup)
		if err != nil {
			log.Error(fmt.Sprintf("Error loading aux table: %v", err))
			return
		}
	}

	selection, err := browser.BuildSelection(view.TotalRecords(), aux, config.Cuts, config.Entries)
	if err != nil {
		log.Error(fmt.Sprintf("Error building selection: %v", err))
		return
	}

	steps, err := browser.LoadPipelineConfig(config.DSPConfig)
	if err != nil {
		log.Error(fmt.Sprintf("Error reading DSP config: %v", err))
		return
	}
	pipeline, err := browser.NewPipeline(steps, config.ChannelID, params)
	if err != nil {
		log.Error(fmt.Sprintf("Error building pipeline: %v", err))
		return
	}

	writer := browser.NewFeatureWriter(config.FileOut, config.OutGroup)
	defer writer.Close()

	log.Info(fmt.Sprintf("Extracting %d entries with %d workers", len(selection), config.NumWorkers), "extract")
	if _, err := browser.ExtractFeatures(view, pipeline, selection, config.NumWorkers, writer); err != nil {
		log.Error(fmt.Sprintf("Extraction failed: %v", err))
		return
	}
	log.Info(fmt.Sprintf("Features written to %s", config.FileOut), "extract")
}

const usage = `commands:
  n          draw next batch
  e K        draw absolute entry K
  j K        jump to selection position K
  r          reset to the first batch
  s [FILE]   save the figure
  q          quit`

func runInteractive(wb *browser.WaveformBrowser, renderer *browser.PlotRenderer, config browser.Configuration, log Logger) {
	rl, err := readline.New("browser> ")
	if err != nil {
		log.Error(fmt.Sprintf("Error opening prompt: %v", err))
		return
	}
	defer rl.Close()

	figOut := config.FigOut
	if figOut == "" {
		figOut = "browser.png"
	}
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "n":
			batch, err := wb.DrawNext()
			if err != nil {
				log.Error(err.Error())
				continue
			}
			if len(batch) == 0 {
				log.Info("Selection exhausted, use r to restart", "browser")
				continue
			}
			log.Info(fmt.Sprintf("Drew entries %v", batch), "browser")
		case "e":
			k, ok := intArg(fields, log)
			if !ok {
				continue
			}
			if err := wb.DrawEntry(k); err != nil {
				log.Error(err.Error())
				continue
			}
			log.Info(fmt.Sprintf("Drew entry %d", k), "browser")
		case "j":
			k, ok := intArg(fields, log)
			if !ok {
				continue
			}
			if err := wb.JumpTo(k); err != nil {
				log.Error(err.Error())
			}
		case "r":
			wb.Reset()
		case "s":
			if len(fields) > 1 {
				figOut = fields[1]
			}
			if err := renderer.Save(figOut); err != nil {
				log.Error(fmt.Sprintf("Error saving figure: %v", err))
				continue
			}
			log.Info(fmt.Sprintf("Saved %s", figOut), "browser")
		case "q":
			return
		default:
			fmt.Println(usage)
		}
	}
}

func intArg(fields []string, log Logger) (int, bool) {
	if len(fields) < 2 {
		fmt.Println(usage)
		return 0, false
	}
	k, err := strconv.Atoi(fields[1])
	if err != nil {
		log.Error(fmt.Sprintf("Not a number: %q", fields[1]))
		return 0, false
	}
	return k, true
}
