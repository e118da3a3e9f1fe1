// backtest replays historical over/under results against the goal model
// and sweeps the edge threshold to find where the strategy is profitable.
//
// Data source: football-data.co.uk season CSVs with Pinnacle closing
// totals prices (P>2.5 / P<2.5). See https://www.football-data.co.uk/notes.txt
//
// Usage:
//
//	go run cmd/backtest/main.go
//	go run cmd/backtest/main.go path/to/E0.csv path/to/SP1.csv
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/jcalloway/tipwire/internal/backtest"
)

var leagueURLs = map[string][]string{
	"EPL": {
		"https://www.football-data.co.uk/mmz4281/2425/E0.csv",
		"https://www.football-data.co.uk/mmz4281/2324/E0.csv",
	},
	"La Liga": {
		"https://www.football-data.co.uk/mmz4281/2425/SP1.csv",
		"https://www.football-data.co.uk/mmz4281/2324/SP1.csv",
	},
	"Serie A": {
		"https://www.football-data.co.uk/mmz4281/2425/I1.csv",
		"https://www.football-data.co.uk/mmz4281/2324/I1.csv",
	},
	"Bundesliga": {
		"https://www.football-data.co.uk/mmz4281/2425/D1.csv",
		"https://www.football-data.co.uk/mmz4281/2324/D1.csv",
	},
}

func main() {
	fmt.Println("=== Over/Under Backtest ===")
	fmt.Println("Data source: football-data.co.uk (Pinnacle closing totals)")
	fmt.Println()

	var records []backtest.Record

	if len(os.Args) > 1 {
		for _, path := range os.Args[1:] {
			recs, err := parseFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "WARN: %s: %v\n", path, err)
				continue
			}
			records = append(records, recs...)
		}
	} else {
		for league, urls := range leagueURLs {
			for _, url := range urls {
				recs, err := downloadAndParse(url, league)
				if err != nil {
					fmt.Fprintf(os.Stderr, "WARN: %s: %v\n", url, err)
					continue
				}
				records = append(records, recs...)
			}
		}
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no usable records")
		os.Exit(1)
	}

	fmt.Printf("Loaded %d matches with totals prices\n\n", len(records))

	engine := backtest.NewEngine(100.0)
	thresholds := []float64{0, 1, 2, 3, 4, 5, 6, 8, 10}
	results := engine.Sweep(records, thresholds)
	for _, res := range results {
		fmt.Println(res.Format())
	}

	// Buckets cover every evaluated match, so any threshold's run will do.
	fmt.Println()
	fmt.Println("Calibration buckets (predicted vs actual):")
	fmt.Print(results[0].FormatBuckets())
}

func downloadAndParse(url, league string) ([]backtest.Record, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return parse(resp.Body, league)
}

func parseFile(path string) ([]backtest.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f, strings.TrimSuffix(path, ".csv"))
}

func parse(r io.Reader, league string) ([]backtest.Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, h := range header {
		colIdx[strings.TrimSpace(h)] = i
	}

	for _, req := range []string{"HomeTeam", "AwayTeam", "FTHG", "FTAG"} {
		if _, ok := colIdx[req]; !ok {
			return nil, fmt.Errorf("missing column: %s", req)
		}
	}

	var records []backtest.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		rec := backtest.Record{
			League:    league,
			HomeTeam:  getCol(row, colIdx, "HomeTeam"),
			AwayTeam:  getCol(row, colIdx, "AwayTeam"),
			HomeGoals: getColInt(row, colIdx, "FTHG"),
			AwayGoals: getColInt(row, colIdx, "FTAG"),
			Line:      2.5,
			OverOdds:  getColFloat(row, colIdx, "P>2.5"),
			UnderOdds: getColFloat(row, colIdx, "P<2.5"),
		}

		// Fall back to Bet365 totals when Pinnacle is missing.
		if rec.OverOdds <= 1 {
			rec.OverOdds = getColFloat(row, colIdx, "B365>2.5")
			rec.UnderOdds = getColFloat(row, colIdx, "B365<2.5")
		}

		if rec.HomeTeam == "" || rec.OverOdds <= 1 {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func getCol(row []string, colIdx map[string]int, name string) string {
	i, ok := colIdx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func getColInt(row []string, colIdx map[string]int, name string) int {
	n, _ := strconv.Atoi(getCol(row, colIdx, name))
	return n
}

func getColFloat(row []string, colIdx map[string]int, name string) float64 {
	f, _ := strconv.ParseFloat(getCol(row, colIdx, name), 64)
	return f
}
