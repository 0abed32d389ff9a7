package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"knn/internal/config"
	"knn/internal/dataset"
	"knn/internal/linalg"
	"knn/internal/linear"
	"knn/internal/model"
	"knn/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (built-in worked example when empty)")
	mode := flag.String("mode", "network", "One of network, idx, many-to-one, many-to-many")
	epochs := flag.Int("epochs", 0, "Number of training epochs")
	learningRate := flag.Float64("learning-rate", 0, "Learning rate")
	seed := flag.Int64("seed", 0, "PRNG seed for weight initialization (0 leaves the config seed; set seed: 0 in YAML for the literal worked weights)")
	logEvery := flag.Int("log-every", 0, "Log every N epochs")
	images := flag.String("images", "", "IDX image file")
	labels := flag.String("labels", "", "IDX label file")
	dataDir := flag.String("data-dir", "", "Directory holding train-images/train-labels IDX files")
	maxSamples := flag.Int("max-samples", 0, "Cap on loaded IDX records")

	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	cfg.ApplyOverrides(config.Overrides{
		LearningRate: *learningRate,
		Epochs:       *epochs,
		Seed:         *seed,
		LogEvery:     *logEvery,
		ImagesPath:   *images,
		LabelsPath:   *labels,
		DataDir:      *dataDir,
		MaxSamples:   *maxSamples,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch *mode {
	case "network":
		err = runNetwork(ctx, cfg)
	case "idx":
		err = runIDX(ctx, cfg)
	case "many-to-one":
		err = runManyToOne(cfg)
	case "many-to-many":
		err = runManyToMany(cfg)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", *mode, err)
	}
}

// workedTopology is the shape of the literal worked-example weights.
var workedTopology = []int{3, 4, 1}

// buildNetwork returns the street-lights network. Seed 0 keeps the literal
// worked-example weights and therefore the 3-4-1 topology; any other seed
// draws random weights over the configured hidden sizes.
func buildNetwork(cfg *config.Config) (*model.Network, error) {
	opts := model.Options{Alpha: cfg.LearningRate, ReLUWeights: cfg.HiddenReLUWeights}
	if cfg.Seed == 0 {
		if !equalInts(cfg.Topology, workedTopology) {
			log.Printf("seed=0 uses the worked-example weights; topology %v replaced by %v", cfg.Topology, workedTopology)
		}
		return model.NewWithWeights(dataset.WorkedWeights(), opts)
	}
	topology := append([]int(nil), cfg.Topology...)
	topology[0], topology[len(topology)-1] = 3, 1
	return model.New(topology, opts, rand.New(rand.NewSource(cfg.Seed)))
}

func runNetwork(ctx context.Context, cfg *config.Config) error {
	net, err := buildNetwork(cfg)
	if err != nil {
		return err
	}

	res, err := trainer.Run(ctx, trainer.RunConfig{
		Model:    net,
		Examples: dataset.StreetLights(),
		Holdout:  dataset.StreetLightsHoldout(),
		Epochs:   cfg.MaxIterations,
		LogEvery: cfg.LogEvery,
	})
	if err != nil {
		return err
	}
	fmt.Println(formatVector(res.Prediction))
	return nil
}

func runIDX(ctx context.Context, cfg *config.Config) error {
	pair := dataset.Pair{Prefix: "train", Images: cfg.ImagesPath, Labels: cfg.LabelsPath}
	if pair.Images == "" || pair.Labels == "" {
		if cfg.DataDir == "" {
			return fmt.Errorf("idx mode needs images_path and labels_path, or data_dir")
		}
		var err error
		pair, err = dataset.FindPair(cfg.DataDir, "train")
		if err != nil {
			return err
		}
	}

	examples, err := dataset.LoadPair(pair, cfg.MaxSamples)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		return fmt.Errorf("no records in %s", pair.Images)
	}
	log.Printf("images=%s labels=%s records=%d", pair.Images, pair.Labels, len(examples))

	topology := append([]int(nil), cfg.Topology...)
	topology[0], topology[len(topology)-1] = len(examples[0].Input), dataset.DigitClasses
	net, err := model.New(topology,
		model.Options{Alpha: cfg.LearningRate, ReLUWeights: cfg.HiddenReLUWeights},
		rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return err
	}

	if _, err := trainer.Run(ctx, trainer.RunConfig{
		Model:    net,
		Examples: examples,
		Epochs:   cfg.MaxIterations,
		LogEvery: cfg.LogEvery,
	}); err != nil {
		return err
	}

	acc, err := trainer.Accuracy(net, examples)
	if err != nil {
		return err
	}
	log.Printf("training accuracy=%.4f", acc)
	return nil
}

// manyToOneData is the single-weight worked example: inputs [1], weight 0.1,
// goal 14, alpha 0.7.
func manyToOneData(cfg *config.Config) linear.Data {
	return linear.Data{
		Alpha:     0.7,
		Weights:   linalg.Vector{0.1},
		Inputs:    linalg.Vector{1},
		Goal:      14,
		Tries:     cfg.MaxIterations,
		Threshold: cfg.ConvergenceThreshold,
	}
}

// manyToManyData shares inputs [0.1, -0.2, 0.4] across the goals [1, 3, -1].
func manyToManyData(cfg *config.Config) (linear.Data, linalg.Vector) {
	return linear.Data{
		Alpha:     0.004,
		Inputs:    linalg.Vector{0.1, -0.2, 0.4},
		Tries:     cfg.MaxIterations,
		Threshold: cfg.ConvergenceThreshold,
	}, linalg.Vector{1, 3, -1}
}

func runManyToOne(cfg *config.Config) error {
	res, err := linear.ManyToOne(manyToOneData(cfg), printTry)
	if err != nil {
		return err
	}
	log.Printf("tries=%d error=%g weights=%s", res.Tries, res.Error, formatVector(res.Weights))
	return nil
}

func runManyToMany(cfg *config.Config) error {
	base, goals := manyToManyData(cfg)
	weights := linalg.RandomMatrix(len(goals), len(base.Inputs), rand.New(rand.NewSource(cfg.Seed)))

	res, err := linear.ManyToMany(base, goals, weights, func(row int) linear.Observer {
		fmt.Printf("Row index %d\n", row)
		return printTry
	})
	if err != nil {
		return err
	}
	fmt.Println("Result")
	fmt.Println(formatVector(res.Predictions))
	return nil
}

func printTry(try int, e float64, weights linalg.Vector) {
	fmt.Printf("Error: %g - Weight: %s - Tries: %d\n", e, formatVector(weights), try)
}

func formatVector(v linalg.Vector) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return strings.Join(parts, ", ")
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
