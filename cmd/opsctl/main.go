package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"SignalOps/internal/di"
	"SignalOps/internal/domain/models"
	drepo "SignalOps/internal/domain/repository"
	"SignalOps/pkg/config"
)

const usage = `usage: opsctl [flags] <command> [args]

commands:
  status                    print the current flag snapshot
  halt_global               engage the global halt
  resume_global             release the global halt
  halt_pairs <pairs>        replace the halted-pairs set (comma-separated)
  flatten_pairs <pairs>     replace the flatten-pairs set (comma-separated)
  set_leverage <value>      set the leverage scale (positive number)
  audit [limit]             print recent audit records

flags:
  -config path              config file (default config/config.yaml)
  -reason text              reason recorded in the flag metadata
  -actor name               operator name recorded in the flag metadata
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	reason := flag.String("reason", "", "reason recorded in the flag metadata")
	actor := flag.String("actor", "", "operator name recorded in the flag metadata")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lgr, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	client, err := di.ProvideRedisClient(cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer client.Close()

	trail := di.ProvideAuditTrail(client, cfg, lgr)

	if args[0] == "audit" {
		limit := 20
		if len(args) > 1 {
			limit, err = strconv.Atoi(args[1])
			if err != nil {
				log.Fatalf("audit limit %q is not a number", args[1])
			}
		}
		records, err := trail.Recent(ctx, limit)
		if err != nil {
			log.Fatalf("audit read failed: %v", err)
		}
		printJSON(records)
		return
	}

	svc := di.ProvideOpsService(
		di.ProvideFlagRepository(client, cfg),
		trail,
		di.ProvidePublisher(client),
		cfg,
		di.ProvideNotifier(cfg),
		drepo.NopMetrics{},
		lgr,
	)

	cmd := models.OpsCommand{
		Command:   args[0],
		Arguments: map[string]string{},
		Metadata:  map[string]string{},
	}
	switch args[0] {
	case models.CmdHaltPairs, models.CmdFlattenPairs:
		if len(args) < 2 {
			log.Fatalf("%s needs a comma-separated pair list", args[0])
		}
		cmd.Arguments["pairs"] = args[1]
	case models.CmdSetLeverage:
		if len(args) < 2 {
			log.Fatalf("%s needs a value", args[0])
		}
		cmd.Arguments["leverage"] = args[1]
	}
	if *reason != "" {
		cmd.Metadata["reason"] = *reason
	}
	if *actor != "" {
		cmd.Metadata["actor"] = *actor
	}

	resp, err := svc.Execute(ctx, cmd)
	if err != nil {
		log.Fatalf("command failed: %v", err)
	}
	printJSON(resp)
	if resp.Status != models.StatusOK {
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode output: %v", err)
	}
	fmt.Println(string(b))
}
