// Package main wires a PageDB, a schedule, and the discovery frontier
// together: seed a site, bulk-load the schedule, run the request loop,
// and dump the resulting schedule on exit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spider-crawler/spider/internal/config"
	"github.com/spider-crawler/spider/internal/frontier"
	"github.com/spider-crawler/spider/internal/pagedb"
	"github.com/spider-crawler/spider/internal/scheduler"
	"github.com/spider-crawler/spider/internal/snapshot"
	"github.com/spider-crawler/spider/internal/urlutil"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 3 {
		fmt.Println("Usage: spider <pagedb-path> <seed-url> [seed-url...]")
		os.Exit(1)
	}
	dbPath := os.Args[1]
	seeds := os.Args[2:]

	pages, err := pagedb.Open(dbPath)
	if err != nil {
		log.WithError(err).Fatal("open pagedb")
	}
	defer pages.Close()

	schedCfg := config.DefaultSchedulerConfig()
	schedCfg.Directory = config.DefaultScheduleDirectory(dbPath)

	sched, err := scheduler.New(schedCfg, pages, log)
	if err != nil {
		log.WithError(err).Fatal("new scheduler")
	}
	defer sched.Close()
	sched.SetHostRateLimiter(scheduler.NewHostRateLimiter(time.Second, 5))

	crawlCfg := config.DefaultConfig()
	normalizer := &urlutil.Normalizer{
		RemoveTrailingSlash: crawlCfg.RemoveTrailingSlash,
		RemoveDefaultPort:   true,
		RemoveFragment:      true,
		LowercaseSchemeHost: crawlCfg.LowercaseURLs,
		SortQueryParams:     crawlCfg.SortQueryParams,
	}
	f := frontier.NewMemoryFrontier(crawlCfg.TraversalMode, crawlCfg.MaxDepth, crawlCfg.MaxURLs)
	discoverer := frontier.NewDiscoverer(f, pages, normalizer)

	for _, seed := range seeds {
		if err := discoverer.Seed(seed); err != nil {
			log.WithError(err).WithField("url", seed).Warn("seed failed")
		}
	}

	snapMgr, err := snapshot.NewManager(snapshot.DefaultManagerConfig(schedCfg.Directory + "_snapshots"))
	if err != nil {
		log.WithError(err).Fatal("new snapshot manager")
	}
	snapMgr.StartAutoSnapshot(sched.Entries)
	defer snapMgr.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received interrupt, stopping")
		cancel()
	}()

	if _, err := sched.LoadSimple(); err != nil {
		log.WithError(err).Warn("load_simple")
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dumpFinal(sched, log)
			return
		case <-ticker.C:
			urls, err := sched.Request(10)
			if err != nil {
				log.WithError(err).Warn("request")
				continue
			}
			for _, u := range urls {
				log.WithField("url", u).Info("scheduled for crawl")
			}
			if depth, err := sched.QueueDepth(); err == nil {
				log.WithField("depth", depth).Debug("queue depth")
			}
		}
	}
}

func dumpFinal(sched *scheduler.Scheduler, log *logrus.Logger) {
	f, err := os.Create("schedule.dump")
	if err != nil {
		log.WithError(err).Warn("create dump file")
		return
	}
	defer f.Close()

	n, err := sched.Dump(f)
	if err != nil {
		log.WithError(err).Warn("dump schedule")
		return
	}
	log.WithField("entries", n).Info("wrote final schedule dump")
}
