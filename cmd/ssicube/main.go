package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"ssicube/internal/models"
	"ssicube/pkg/align"
	"ssicube/pkg/config"
	"ssicube/pkg/extract"
	"ssicube/pkg/fetch"
	"ssicube/pkg/geojson"
	"ssicube/pkg/geometry"
	"ssicube/pkg/interpolation"
	"ssicube/pkg/isis"
	"ssicube/pkg/npy"
	"ssicube/pkg/photometry"
	"ssicube/pkg/ssi"
	"ssicube/pkg/statistics"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "ISIS cube (.cub) to read")
	configPath := flag.String("config", "ssicube.yaml", "Configuration file (YAML)")
	initConfig := flag.Bool("init-config", false, "Write the default configuration file and exit")
	fetchName := flag.String("fetch", "", "Download this file from the data portal and read it")
	lorriSrc := flag.String("lorri", "", "Read a LORRI cube calibrated with this spectral source (e.g. RSOLAR)")
	showLabel := flag.Bool("label", false, "Print the cube label as YAML")
	showStats := flag.Bool("stats", false, "Print per-band statistics")
	band := flag.Int("band", 0, "1-based band exported by -npy (0: every band)")
	npyPath := flag.String("npy", "", "Export the samples as a .npy array")
	fill := flag.Bool("fill", false, "Fill special pixels by kriging before -npy and -planes exports")
	planes := flag.String("planes", "", "Save every plane along this axis (band, line or sample) as .npy files")
	pixel := flag.String("pixel", "", "Describe the pixel at sample,line (1-based)")
	showTables := flag.Bool("tables", false, "List the tables and the sub-spacecraft and sub-solar points")
	geojsonPath := flag.String("geojson", "", "Write the footprint of the valid pixels as GeoJSON")
	fit := flag.Bool("fit", false, "Fit the photometric model to the data")
	model := flag.String("model", "", "Photometric model (minnaert or hapke), overrides the configuration")
	doAlign := flag.Bool("align", false, "Estimate the offset between the data and the navigation backplanes")
	comparePath := flag.String("compare", "", "Compare the data against a reference cube")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to write configuration")
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Output.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *fetchName != "" {
		client := fetch.New(cfg.Fetch.BaseURL, cfg.Fetch.CacheDir,
			fetch.WithTimeout(time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second),
			fetch.WithCache(cfg.Fetch.UseCache),
			fetch.WithLogger(log.Logger),
		)
		path, err := client.Fetch(ctx, *fetchName)
		if err != nil {
			log.Fatal().Err(err).Str("name", *fetchName).Msg("Download failed")
		}
		*input = path
	}

	// Validate inputs
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	opts := []isis.Option{
		isis.WithMaxLabelBytes(cfg.Reader.MaxLabelBytes),
		isis.WithSaturation(isis.SaturationPolicy(cfg.Reader.Saturation)),
		isis.WithLogger(log.Logger),
	}

	startTime := time.Now()
	var (
		img     *ssi.SSI
		scene   photometry.Scene
		summary string
	)
	if *lorriSrc != "" {
		l, err := ssi.OpenLORRI(*input, *lorriSrc, opts...)
		if err != nil {
			log.Fatal().Err(err).Str("path", *input).Msg("Failed to read cube")
		}
		img, scene, summary = l.SSI, l, l.Summary()
	} else {
		img, err = ssi.Open(*input, opts...)
		if err != nil {
			log.Fatal().Err(err).Str("path", *input).Msg("Failed to read cube")
		}
		scene, summary = img, img.Summary()
	}
	log.Debug().Dur("elapsed", time.Since(startTime)).Msg("Cube loaded")

	fmt.Print(summary)
	counts := img.SpecialCounts()
	fmt.Printf(" - Special pixels: %d\n", counts.Total())

	if *showLabel {
		if err := printYAML(img.Label()); err != nil {
			log.Fatal().Err(err).Msg("Failed to print label")
		}
	}

	if *showStats {
		stats, err := statistics.Volume(img.Cube.Data())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to compute statistics")
		}
		if err := printYAML(stats); err != nil {
			log.Fatal().Err(err).Msg("Failed to print statistics")
		}
	}

	if *showTables {
		if err := printTables(img); err != nil {
			log.Fatal().Err(err).Msg("Failed to read tables")
		}
	}

	if *pixel != "" {
		if err := describePixel(img, *pixel); err != nil {
			log.Fatal().Err(err).Str("pixel", *pixel).Msg("Failed to describe pixel")
		}
	}

	vol := img.Cube.Data()
	if *fill && (*npyPath != "" || *planes != "") {
		variogram, err := interpolation.ParseVariogramModel(cfg.Interpolation.Variogram)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid interpolation settings")
		}
		params := interpolation.Params{
			Model:     variogram,
			Neighbors: cfg.Interpolation.Neighbors,
			Radius:    cfg.Interpolation.Radius,
		}
		filled, n, err := interpolation.FillVolume(vol, params)
		if err != nil {
			log.Fatal().Err(err).Msg("Gap filling failed")
		}
		log.Info().Int("filled", n).Int("remaining", filled.CountNaN()).Msg("Special pixels filled")
		vol = filled
	}

	if *npyPath != "" {
		if err := exportNPY(vol, *band, *npyPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to export samples")
		}
		fmt.Printf("Samples saved to: %s\n", *npyPath)
	}

	if *planes != "" {
		axis, err := extract.ParseAxis(*planes)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid plane axis")
		}
		dir := filepath.Join(cfg.Output.Dir, img.ImgID(), string(axis))
		files, err := extract.New(vol).SavePlaneSequence(axis, dir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to save planes")
		}
		fmt.Printf("Saved %d %s planes to: %s\n", len(files), axis, dir)
	}

	if *geojsonPath != "" {
		if err := writeFootprint(img, scene, cfg.Geometry.ContourThreshold, *geojsonPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to write footprint")
		}
		fmt.Printf("Footprint saved to: %s\n", *geojsonPath)
	}

	if *fit {
		name := cfg.Photometry.Model
		if *model != "" {
			name = *model
		}
		res, err := photometry.Fit(scene, nil, name)
		if err != nil {
			log.Fatal().Err(err).Str("model", name).Msg("Photometric fit failed")
		}
		fmt.Printf("\nPhotometric fit (%s, %d pixels):\n", res.Model, len(res.X))
		switch res.Model {
		case photometry.Minnaert:
			fmt.Printf("- B0: %.4f\n- k: %.4f\n", res.Params[0], res.Params[1])
		case photometry.Hapke:
			fmt.Printf("- A: %.4f\n- f: %.4f\n", res.Params[0], res.Params[1])
		}
	}

	if *doAlign {
		data, err := scene.Data()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read data layer")
		}
		nav, err := img.Latitude()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read navigation layer")
		}
		ds, dl, err := align.Offsets(data, nav)
		if err != nil {
			log.Fatal().Err(err).Msg("Alignment failed")
		}
		fmt.Printf("\nNavigation offset: %d samples, %d lines\n", ds, dl)
	}

	if *comparePath != "" {
		cmp, err := compare(scene, *comparePath, opts)
		if err != nil {
			log.Fatal().Err(err).Str("reference", *comparePath).Msg("Comparison failed")
		}
		fmt.Printf("\nComparison with %s:\n", filepath.Base(*comparePath))
		if err := printYAML(cmp); err != nil {
			log.Fatal().Err(err).Msg("Failed to print comparison")
		}
	}
}

func printYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func printTables(img *ssi.SSI) error {
	tables, err := img.Tables()
	if err != nil {
		return err
	}
	fmt.Printf("\nTables:\n")
	for _, t := range tables {
		fmt.Printf("- %s: %d records [%s]\n", t.Name, t.Records(), strings.Join(t.Names(), ", "))
	}
	if lon, lat, err := img.SubSpacecraft(); err == nil {
		fmt.Printf("Sub-spacecraft point: %.2f°W %.2f°N\n", lon, lat)
	}
	if lon, lat, err := img.SubSolar(); err == nil {
		fmt.Printf("Sub-solar point: %.2f°W %.2f°N\n", lon, lat)
	}
	return nil
}

func describePixel(img *ssi.SSI, coords string) error {
	var s, l int
	if _, err := fmt.Sscanf(coords, "%d,%d", &s, &l); err != nil {
		return fmt.Errorf("pixel must be sample,line: %w", err)
	}
	p, err := img.Pixel(s, l)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", p.Describe())

	spectrum, err := extract.New(img.Cube.Data()).Spectrum(s-1, l-1)
	if err != nil {
		return err
	}
	layers, _ := img.Layers()
	for b, v := range spectrum {
		name := fmt.Sprintf("Band %d", b+1)
		if b < len(layers) {
			name = layers[b]
		}
		fmt.Printf("   %-18s %g\n", name, v)
	}
	return nil
}

func exportNPY(vol *models.Volume, band int, path string) error {
	if band > 0 {
		data, err := vol.Band(band - 1)
		if err != nil {
			return err
		}
		return npy.WriteFile(path, data, vol.Lines, vol.Samples)
	}
	return npy.WriteFile(path, vol.Data, vol.Bands, vol.Lines, vol.Samples)
}

// writeFootprint traces the outline of the finite data pixels. Vertices are
// east longitudes and latitudes when the cube carries them, pixel
// coordinates otherwise.
func writeFootprint(img *ssi.SSI, scene photometry.Scene, threshold int, path string) error {
	data, err := scene.Data()
	if err != nil {
		return err
	}
	valid := geometry.NewMask(data.NL(), data.NS())
	for i, v := range data.Values() {
		valid[i/data.NS()][i%data.NS()] = !math.IsNaN(float64(v))
	}

	paths, err := geometry.Contours(geometry.Edges(valid), threshold)
	if err != nil {
		return err
	}

	lon, errLon := img.Longitude()
	lat, errLat := img.Latitude()
	geographic := errLon == nil && errLat == nil

	rings := make([][]geojson.Position, 0, len(paths))
	for _, p := range paths {
		ring := make([]geojson.Position, 0, p.Len())
		for i := range p.Lines {
			s, l := p.Samples[i]+1, p.Lines[i]+1
			if !geographic {
				ring = append(ring, geojson.Position{float64(s), float64(l)})
				continue
			}
			lonW, _ := lon.At(s, l)
			la, _ := lat.At(s, l)
			ring = append(ring, geojson.Position{geometry.Deg180(-float64(lonW)), float64(la)})
		}
		rings = append(rings, ring)
	}

	geom, err := geojson.Footprint(rings)
	if err != nil {
		return err
	}

	props := map[string]interface{}{"img_id": img.ImgID(), "geographic": geographic}
	if f, err := img.FilterName(); err == nil {
		props["filter"] = f
	}
	out, err := geojson.NewFeature(&geom, props).JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out+"\n"), 0644)
}

func compare(scene photometry.Scene, refPath string, opts []isis.Option) (statistics.Comparison, error) {
	data, err := scene.Data()
	if err != nil {
		return statistics.Comparison{}, err
	}
	ref, err := ssi.Open(refPath, opts...)
	if err != nil {
		return statistics.Comparison{}, err
	}
	refData, err := ref.Data()
	if err != nil {
		return statistics.Comparison{}, err
	}
	return statistics.Compare(refData.Values(), data.Values())
}
