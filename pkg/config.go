package browser

import (
	"encoding/json"
	"fmt"
	"os"
)

type Configuration struct {
	FilePattern string `json:"file_pattern"`
	Channel     string `json:"channel"`
	ChannelID   int    `json:"channel_id"`
	RunNumber   int    `json:"run_number"`

	NDrawn   int `json:"n_drawn"`
	LRUBound int `json:"lru_bound"`

	DSPConfig string `json:"dsp_config"`
	AuxFile   string `json:"aux_file"`
	AuxGroup  string `json:"aux_group"`

	Cuts    []Cut `json:"cuts"`
	Entries []int `json:"entries"`

	DrawOutputs     []string              `json:"draw_outputs"`
	LineSpecs       map[string]LineSpec   `json:"line_specs"`
	LegendTemplates []string              `json:"legend_templates"`
	LegendFormats   map[string]FormatSpec `json:"legend_formats"`
	Overlay         bool                  `json:"overlay"`

	NoDB   bool   `json:"no_db"`
	Host   string `json:"host"`
	User   string `json:"user"`
	Passwd string `json:"pass"`
	DBName string `json:"dbname"`

	NumWorkers int    `json:"num_workers"`
	FileOut    string `json:"file_out"`
	OutGroup   string `json:"out_group"`
	FigOut     string `json:"fig_out"`
	Verbosity  int    `json:"verbosity"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.Channel = "pmtrwf"
	config.NDrawn = 1
	config.LRUBound = DefaultLRUBound
	config.AuxGroup = "DSP"
	config.Overlay = false
	config.NoDB = false
	config.Host = "next.ific.uv.es"
	config.User = "nextreader"
	config.Passwd = "readonly"
	config.DBName = "NEXT100"
	config.NumWorkers = 1
	config.OutGroup = "DSP"
	config.Verbosity = 0

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File pattern: %s", config.FilePattern), "config")
	logger.Info(fmt.Sprintf("Channel: %s (id %d)", config.Channel, config.ChannelID), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Entries per draw: %d", config.NDrawn), "config")
	logger.Info(fmt.Sprintf("Open-file bound: %d", config.LRUBound), "config")
	logger.Info(fmt.Sprintf("DSP config: %s", config.DSPConfig), "config")
	logger.Info(fmt.Sprintf("Aux table: %s (%s)", config.AuxFile, config.AuxGroup), "config")
	logger.Info(fmt.Sprintf("Cuts: %d, explicit entries: %d", len(config.Cuts), len(config.Entries)), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Figure out: %s", config.FigOut), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
