// Command uploader watches a handshakes directory for complete
// capture pairs (<base>.pcap + <base>.gps.json) and submits them to a
// pwnamap server. Designed for flaky, low-power field links: it probes
// reachability before spending bandwidth, backs off with jitter on
// failure, and journals finished uploads so restarts never re-send.
package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.New()

func main() {
	app := &cli.App{
		Name:  "pwnamap-uploader",
		Usage: "Upload capture pairs to a pwnamap server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "server",
				Usage:    "Upload endpoint `URL` (e.g. https://host/api/upload)",
				EnvVars:  []string{"PWNAMAP_SERVER_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Bearer `TOKEN` for the upload endpoint",
				EnvVars:  []string{"PWNAMAP_API_TOKEN"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "dir",
				Value:   "handshakes",
				Usage:   "Directory holding capture pairs",
				EnvVars: []string{"PWNAMAP_HANDSHAKES_DIR"},
			},
			&cli.StringFlag{
				Name:  "journal",
				Value: ".pwnamap_uploaded.list",
				Usage: "File recording already-uploaded captures",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: 2 * time.Minute,
				Usage: "Rescan interval when idle",
			},
			&cli.DurationFlag{
				Name:  "max-backoff",
				Value: 30 * time.Minute,
				Usage: "Upper bound for the failure backoff",
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "Skip TLS certificate verification",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("verbose") {
				log.SetLevel(logrus.DebugLevel)
			}
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

			u := newUploader(uploaderOptions{
				ServerURL:   c.String("server"),
				Token:       c.String("token"),
				Dir:         c.String("dir"),
				JournalPath: c.String("journal"),
				Interval:    c.Duration("interval"),
				MaxBackoff:  c.Duration("max-backoff"),
				Insecure:    c.Bool("insecure"),
			}, log)
			return u.run()
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
