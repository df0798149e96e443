// loggen publishes a stream of synthetic HDFS-style log records to the raw
// log topic, weighted so anomalies stay rare the way they are in real
// traffic. It exists to exercise the pipeline without a live log source.
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
	"time"

	"github.com/google/uuid"

	"logsift/config"
	"logsift/internal/messaging/producer"
	"logsift/internal/models"
)

func main() {
	var (
		brokers  = flag.String("brokers", "localhost:9092", "Comma-separated Kafka broker addresses")
		topic    = flag.String("topic", "raw-logs", "Topic to publish records to")
		interval = flag.Duration("interval", 200*time.Millisecond, "Delay between records")
		count    = flag.Int("count", 0, "Number of records to publish (0 = run until interrupted)")
		seed     = flag.Int64("seed", 0, "Random seed (0 = time-based)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[LOGGEN] ", log.LstdFlags|log.Lshortfile)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	producerCfg := config.KafkaProducerConfig{
		Brokers: strings.Split(*brokers, ","),
		Topic:   *topic,
	}
	kafkaProducer, err := producer.NewKafkaProducer(producerCfg, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize Kafka producer: %v", err)
	}
	defer kafkaProducer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Println("Received shutdown signal, stopping generator...")
		cancel()
	}()

	logger.Printf("Generating records to topic %s (interval: %v, seed: %d)", *topic, *interval, *seed)

	published := 0
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for *count == 0 || published < *count {
		select {
		case <-ctx.Done():
			logger.Printf("Stopped after %d record(s).", published)
			return
		case <-ticker.C:
		}

		rec := nextRecord(rng)
		if err := kafkaProducer.Publish(ctx, rec); err != nil {
			logger.Printf("Publish failed for record %s: %v", rec.ID, err)
			continue
		}
		published++
		if published%500 == 0 {
			logger.Printf("Published %d record(s)...", published)
		}
	}

	logger.Printf("Done: published %d record(s).", published)
}

// levelWeights mirrors the distribution of a healthy cluster: the
// overwhelming majority of lines are routine.
var levelWeights = []struct {
	level  string
	weight float64
}{
	{"INFO", 0.900},
	{"WARNING", 0.085},
	{"ERROR", 0.010},
	{"CRITICAL", 0.005},
}

func pickLevel(rng *rand.Rand) string {
	r := rng.Float64()
	for _, lw := range levelWeights {
		if r < lw.weight {
			return lw.level
		}
		r -= lw.weight
	}
	return levelWeights[0].level
}

// messageBuilders produces HDFS-flavored lines per level.
var messageBuilders = map[string][]func(block, addr string, rng *rand.Rand) string{
	"INFO": {
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Receiving block %s src: /%s dest: /%s", block, addr, addr)
		},
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Received block %s of size %d from /%s", block, 1024*(1+rng.Intn(65536)), addr)
		},
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("PacketResponder 1 for block %s terminating", block)
		},
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Verification succeeded for %s", block)
		},
	},
	"WARNING": {
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Slow BlockReceiver write packet to mirror took %dms for block %s", 300+rng.Intn(5000), block)
		},
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Datanode heartbeat from /%s delayed by %dms", addr, 500+rng.Intn(3000))
		},
	},
	"ERROR": {
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("writeBlock %s received exception java.io.IOException: Connection reset by peer", block)
		},
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Failed to transfer %s to /%s got java.net.SocketTimeoutException", block, addr)
		},
	},
	"CRITICAL": {
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Data corruption detected in block %s on /%s", block, addr)
		},
		func(block, addr string, rng *rand.Rand) string {
			return fmt.Sprintf("Namenode unreachable, last contact %ds ago", 30+rng.Intn(600))
		},
	},
}

func nextRecord(rng *rand.Rand) *models.LogRecord {
	level := pickLevel(rng)
	block := fmt.Sprintf("blk_%d", rng.Int63())
	addr := fmt.Sprintf("10.%d.%d.%d:%d", rng.Intn(256), rng.Intn(256), rng.Intn(256), 50010)

	builders := messageBuilders[level]
	message := builders[rng.Intn(len(builders))](block, addr, rng)

	return &models.LogRecord{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		LogLevel:   level,
		Message:    message,
		ParamValue: block,
	}
}
