package main

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"

	"github.com/AccessibleAI/gpu-memory-planner/pkg/allocation"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type param struct {
	name      string
	shorthand string
	value     interface{}
	usage     string
}

const (
	outJSON  = "json"
	outTable = "table"
	outRaw   = "raw"
)

const (
	// flagConfig directory holding config.yaml.
	flagConfig = "config"
	// flagDataFile path to the allocation data file.
	flagDataFile = "data-file"
	// flagOutput defines output format.
	flagOutput = "output"
	// flagOutputS short form of flagOutput.
	flagOutputS = "o"
	// flagJSONLog enables log json.
	flagJSONLog = "json-log"
	// flagVerbose enables verbose logging.
	flagVerbose = "verbose"
	// flagPrettyOut enables indented JSON output for humans.
	flagPrettyOut = "pretty"
)

var (
	Version    string
	Build      string
	rootParams = []param{
		{name: flagConfig, shorthand: "c", value: ".", usage: "path to configuration directory"},
		{name: flagDataFile, shorthand: "f", value: allocation.DefaultDataFile, usage: "path to the allocation data file"},
		{name: flagJSONLog, shorthand: "", value: false, usage: "output logs in json format"},
		{name: flagVerbose, shorthand: "", value: false, usage: "enable verbose logs"},
		{name: flagOutput, shorthand: flagOutputS, value: outTable, usage: "output format, one of: table|json|raw"},
		{name: flagPrettyOut, shorthand: "", value: false, usage: "pretty output for JSON"},
	}
)

var mgPlanVersion = &cobra.Command{
	Use:   "version",
	Short: "Print mgplan version and build sha",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("🐾 version: %s build: %s \n", Version, Build)
	},
}

var rootCmd = &cobra.Command{
	Use:   "mgplan",
	Short: "mgplan - plan gpu memory allocations for tasks across gpu schemes",
}

func init() {
	cobra.OnInitialize(initConfig)
	setParams(rootParams, rootCmd)
	setParams(usageGetParams, usageGetCmd)
	setParams(allocListParams, allocListCmd)
	setParams(exportParams, exportCmd)
	// get
	getCmd.AddCommand(usageGetCmd)
	getCmd.AddCommand(schemesGetCmd)
	getCmd.AddCommand(gpusGetCmd)
	getCmd.AddCommand(tasksGetCmd)
	// resources
	schemeCmd.AddCommand(schemeAddCmd, schemeRenameCmd, schemeDeleteCmd, schemeUseCmd)
	gpuCmd.AddCommand(gpuAddCmd, gpuUpdateCmd, gpuDeleteCmd)
	taskCmd.AddCommand(taskAddCmd, taskUpdateCmd, taskDeleteCmd)
	allocCmd.AddCommand(allocSetCmd, allocDeleteCmd, allocListCmd)
	// root commands
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(schemeCmd)
	rootCmd.AddCommand(gpuCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(allocCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mgPlanVersion)
}

func initConfig() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("MG_PLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.mgplan")
	viper.AddConfigPath(viper.GetString(flagConfig))
	setupLogging()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("bad config file, err: %s", err)
		}
		log.Debug("no config file found, using flags and env")
	} else {
		log.Debugf("using config file: %s", viper.ConfigFileUsed())
	}
}

func setParams(params []param, command *cobra.Command) {
	for _, param := range params {
		switch v := param.value.(type) {
		case int:
			command.PersistentFlags().IntP(param.name, param.shorthand, v, param.usage)
		case string:
			command.PersistentFlags().StringP(param.name, param.shorthand, v, param.usage)
		case bool:
			command.PersistentFlags().BoolP(param.name, param.shorthand, v, param.usage)
		}
		if err := viper.BindPFlag(param.name, command.PersistentFlags().Lookup(param.name)); err != nil {
			panic(err)
		}
	}
}

func setupLogging() {

	// Set log verbosity
	if viper.GetBool(flagVerbose) {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
			CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
				fileName := fmt.Sprintf(" [%s]", path.Base(frame.Function)+":"+strconv.Itoa(frame.Line))
				return "", fileName
			},
		})
	} else {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	// Set log format
	if viper.GetBool(flagJSONLog) {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Logs go to STDERR, STDOUT carries the tables
	log.SetOutput(os.Stderr)
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

}
