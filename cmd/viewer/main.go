// Command viewer polls the server's debug stats endpoint and renders a
// live table of matchmaking activity. Meant for operators, not users.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"failly/observability"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerURL string        `envconfig:"VIEWER_SERVER_URL" default:"http://localhost:8080"`
	Interval  time.Duration `envconfig:"VIEWER_INTERVAL" default:"5s"`
	Colours   bool          `envconfig:"VIEWER_COLOURS" default:"true"`
	Once      bool          `envconfig:"VIEWER_ONCE" default:"false"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	for {
		stats, err := fetchStats(client, config.ServerURL)
		if err != nil {
			log.Printf("Fetching stats failed: %v", err)
		} else {
			render(stats, config.Colours)
		}
		if config.Once {
			return
		}
		time.Sleep(config.Interval)
	}
}

func fetchStats(client *http.Client, serverURL string) (observability.Stats, error) {
	var stats observability.Stats
	resp, err := client.Get(serverURL + "/debug/stats")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stats, fmt.Errorf("unexpected status %s", resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(&stats)
	return stats, err
}

func render(stats observability.Stats, colours bool) {
	header := fmt.Sprintf("failly engine @ %s", stats.CollectedAt)
	if colours {
		color.Bold.Println(header)
	} else {
		fmt.Println(header)
	}

	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"Waiting", "Rooms", "Matches", "Relayed", "Dropped", "Stale skips", "RSS MB", "CPU %"})
	summary.Append([]string{
		strconv.Itoa(stats.WaitingTotal),
		strconv.Itoa(stats.Rooms),
		strconv.FormatUint(stats.Matches, 10),
		strconv.FormatUint(stats.Relayed, 10),
		strconv.FormatUint(stats.Dropped, 10),
		strconv.FormatUint(stats.StaleSkips, 10),
		strconv.FormatUint(stats.RssMb, 10),
		fmt.Sprintf("%.1f", stats.CPUPercent),
	})
	summary.Render()

	if len(stats.WaitingByTag) == 0 {
		return
	}

	tags := make([]string, 0, len(stats.WaitingByTag))
	for tag := range stats.WaitingByTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	queues := tablewriter.NewWriter(os.Stdout)
	queues.SetHeader([]string{"Tag", "Waiting"})
	for _, tag := range tags {
		queues.Append([]string{tag, strconv.Itoa(stats.WaitingByTag[tag])})
	}
	queues.Render()

	if colours && stats.WorkerRestarts > 0 {
		color.Red.Printf("Worker restarts: %d\n", stats.WorkerRestarts)
	}
}
