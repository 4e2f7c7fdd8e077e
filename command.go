/*
 * Filename: /Users/htang/code/svgeno/command.go
 * Path: /Users/htang/code/svgeno
 * Created Date: Wednesday, March 11th 2020, 10:05:21 am
 * Author: htang
 *
 * Copyright (c) 2020 Haibao Tang
 */

package svgeno

import (
	"fmt"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "svgeno",
	Short:   "Genotype structural variants from reads on a sequence graph",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.NOTICE
		if viper.GetBool("verbose") {
			level = logging.DEBUG
		}
		logging.SetLevel(level, "svgeno")
	},
	SilenceUsage: true,
}

// genotypeCmd runs the whole pipeline
var genotypeCmd = &cobra.Command{
	Use:   "genotype",
	Short: "Count reads on the graph and call the genotype",
	Long: `Extract the reads around the graph from the BAM file, assign them to the
nodes and edges they support, and call the genotype of every breakpoint and
of the whole variant.`,
	Example: "  svgeno genotype -b sample.bam -g graph.json -r ref.fa -p params.json --sex male",
	RunE: func(cmd *cobra.Command, args []string) error {
		banner("Genotype " + viper.GetString("graph"))
		r, err := newRunner(true)
		if err != nil {
			return err
		}
		return r.Run()
	},
}

// disambiguateCmd stops after the counts
var disambiguateCmd = &cobra.Command{
	Use:     "disambiguate",
	Short:   "Count reads on the nodes, edges and sequences of the graph",
	Aliases: []string{"count"},
	RunE: func(cmd *cobra.Command, args []string) error {
		banner("Disambiguate " + viper.GetString("graph"))
		r, err := newRunner(false)
		if err != nil {
			return err
		}
		return r.Run()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("bam", "b", "", "input BAM file (indexed BAMs are read by region)")
	flags.StringP("graph", "g", "", "graph spec JSON")
	flags.StringP("reference", "r", "", "reference FASTA for nodes without sequence")
	flags.StringP("output", "o", "-", "output JSON report, .gz to compress")
	flags.IntP("threads", "t", 0, "number of parallel batches, 0 to pick automatically")
	flags.Int("max-reads", MaxReads, "maximum number of reads to extract")
	flags.Int("min-mapq", MinMapQ, "minimum mapping quality of extracted reads")
	flags.Int("min-anchor", MinAnchor, "read bases needed on each side of a junction")
	flags.Int("min-overlap", MinOverlap, "read bases needed on a path to place the read")
	flags.Float64("max-mismatch-frac", MaxMismatchFraction, "maximum fraction of mismatches of a placed read")
	flags.String("weighting", "equal", "split ambiguous reads: equal or quality")
	flags.Int("quality-slack", QualitySlack, "extra mismatches allowed under quality weighting")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile")
	flags.BoolP("verbose", "v", false, "print debug messages")
	bindFlags(rootCmd, "bam", "graph", "reference", "output", "threads", "max-reads",
		"min-mapq", "min-anchor", "min-overlap", "max-mismatch-frac", "weighting",
		"quality-slack", "metrics-file", "verbose")

	gflags := genotypeCmd.Flags()
	gflags.StringP("params", "p", "", "genotyping parameters JSON")
	gflags.String("sex", "unknown", "sample sex: male, female or unknown")
	gflags.String("model", "breakpoint", "genotype model: breakpoint or sequence")
	gflags.Int("male-ploidy", DefaultPloidy, "ploidy of male samples when the parameters have none")
	gflags.Int("female-ploidy", DefaultPloidy, "ploidy of female samples when the parameters have none")
	bindFlags(genotypeCmd, "params", "sex", "model", "male-ploidy", "female-ploidy")

	viper.SetEnvPrefix("svgeno")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(genotypeCmd, disambiguateCmd)
}

// bindFlags hooks the named flags of the command into viper
func bindFlags(cmd *cobra.Command, keys ...string) {
	for _, key := range keys {
		flag := cmd.PersistentFlags().Lookup(key)
		if flag == nil {
			flag = cmd.Flags().Lookup(key)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			log.Fatalf("Cannot bind flag `%s`: %v", key, err)
		}
	}
}

// newRunner collects the settings from flags and environment
func newRunner(genotype bool) (*Runner, error) {
	if viper.GetString("bam") == "" || viper.GetString("graph") == "" {
		return nil, fmt.Errorf("both --bam and --graph are required")
	}
	if viper.GetInt("threads") < 0 {
		return nil, fmt.Errorf("--threads must not be negative")
	}
	weighting, err := ParseWeighting(viper.GetString("weighting"))
	if err != nil {
		return nil, err
	}
	r := &Runner{
		Bamfile:     viper.GetString("bam"),
		Graphfile:   viper.GetString("graph"),
		Reffile:     viper.GetString("reference"),
		Outfile:     viper.GetString("output"),
		Metricsfile: viper.GetString("metrics-file"),
		MaxReads:    viper.GetInt("max-reads"),
		MinMapQ:     viper.GetInt("min-mapq"),
		Options: DisambiguationOptions{
			MinAnchor:           viper.GetInt("min-anchor"),
			MinOverlap:          viper.GetInt("min-overlap"),
			MaxMismatchFraction: viper.GetFloat64("max-mismatch-frac"),
			Weighting:           weighting,
			QualitySlack:        viper.GetInt("quality-slack"),
			Workers:             viper.GetInt("threads"),
		},
		Genotype: genotype,
	}
	if !genotype {
		return r, nil
	}
	if r.Sex, err = ParseSex(viper.GetString("sex")); err != nil {
		return nil, err
	}
	r.Paramsfile = viper.GetString("params")
	r.Model = viper.GetString("model")
	r.MalePloidy = viper.GetInt("male-ploidy")
	r.FemalePloidy = viper.GetInt("female-ploidy")
	return r, nil
}

// banner prints the separate steps
func banner(message string) {
	message = "* " + message + " *"
	log.Noticef(strings.Repeat("*", len(message)))
	log.Noticef(message)
	log.Noticef(strings.Repeat("*", len(message)))
}

// Execute adds all child commands to the root command and runs it. This is
// called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
