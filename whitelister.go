package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	flag "github.com/spf13/pflag"

	log "github.com/sirupsen/logrus"

	"whitelister/chainclient"
	"whitelister/config"
	"whitelister/distribution"
	"whitelister/notifications"
	"whitelister/signer"
	"whitelister/storage"
	"whitelister/util"
	"whitelister/webserver"
)

var (
	version    = "dev"
	commitHash = "unknown"
)

// Flags Command line flags
type Flags struct {
	configFile string
	envFile    string
	rpcURL     string
	network    string
	dataDir    string
	logDebug   bool
	logTrace   bool
	dryRun     bool
	force      bool
	reportFile string
	serve      bool
	webUIAddr  string
	webUIPort  int
}

func main() {
	os.Exit(run())
}

func run() int {

	flags := parseArgs()

	// Logging
	setupLogging(flags.logDebug, flags.logTrace, flags.dataDir)
	defer closeLogging()

	log.Infof("=== Whitelister %s (%s) ===", version, commitHash)

	// Clean exits; an interrupt cancels any chain call in flight
	shutdownChannel := setupCloseChannel()

	ctx, ctxCancel := context.WithCancel(context.Background())
	defer ctxCancel()

	go func() {
		<-shutdownChannel
		log.Warn("Shutting things down...")
		ctxCancel()
	}()

	cfg, err := config.Load(flags.configFile, flags.envFile)
	if err != nil {
		log.WithError(err).Error("Could not load configuration")
		return distribution.EXIT_OTHER
	}

	if flags.rpcURL != "" {
		cfg.RPCURL = flags.rpcURL
	}

	client, err := connect(ctx, cfg, flags.network)
	if err != nil {
		log.WithError(err).Error("Could not connect to chain")
		return distribution.EXIT_OTHER
	}
	defer client.Close()

	// Open/Init database
	store, err := storage.InitStorage(flags.dataDir)
	if err != nil {
		log.WithError(err).Error("Could not open storage")
		return distribution.EXIT_OTHER
	}
	defer store.Close()

	notifier, err := notifications.NewHandler(cfg.Notifications)
	if err != nil {
		log.WithError(err).Error("Unable to load notifiers")
	}

	orchestrator := distribution.New(distribution.Args{
		Reader:             client,
		Writer:             client,
		Ledger:             store,
		Rosters:            distribution.RostersFromConfig(cfg),
		Contract:           common.HexToAddress(cfg.Contract.DeployedAddress),
		FundingWallet:      client.FundingWallet(),
		DistributionWallet: client.DistributionWallet(),
		Clock:              clockwork.NewRealClock(),
		DryRun:             flags.dryRun,
		Force:              flags.force,
	})

	report := orchestrator.Run(ctx)

	if flags.reportFile != "" {
		if err := report.WriteFile(flags.reportFile); err != nil {
			log.WithError(err).Error("Unable to save report")
		} else {
			log.WithField("File", flags.reportFile).Info("Saved run report")
		}
	}

	notifier.SendReport(report)

	if flags.serve {
		serve(report, store, flags, shutdownChannel)
	}

	return report.ExitCode()
}

// connect loads both wallets and dials the RPC endpoint. When network is set,
// the endpoint must report that network's chain id.
func connect(ctx context.Context, cfg *config.Config, network string) (*chainclient.ChainClient, error) {

	funder, err := signer.NewWalletSigner("token", cfg.Token.PrivateKey(), cfg.Token.WalletAddress)
	if err != nil {
		return nil, err
	}

	registrar, err := signer.NewWalletSigner("contract", cfg.Contract.PrivateKey(), cfg.Contract.WalletAddress)
	if err != nil {
		return nil, err
	}

	client, err := chainclient.Dial(ctx, cfg.RPCURL, chainclient.Args{
		TokenAddress:        common.HexToAddress(cfg.Token.DeployedAddress),
		DistributionAddress: common.HexToAddress(cfg.Contract.DeployedAddress),
		Funder:              funder,
		Registrar:           registrar,
	})
	if err != nil {
		return nil, err
	}

	if network == "" {
		return client, nil
	}

	nc, err := util.GetNetworkConstants(network)
	if err != nil {
		client.Close()
		return nil, err
	}

	if client.ChainID.Int64() != nc.ChainID {
		client.Close()
		return nil, errors.Errorf("RPC endpoint is on chain %s, expected %s (%d)", client.ChainID, network, nc.ChainID)
	}

	log.WithFields(log.Fields{
		"Network": network, "BlockTime": nc.BlockTime,
	}).Debug("Loaded Network Constants")

	return client, nil
}

// serve exposes the report, ledger and metrics until interrupted
func serve(report *distribution.Report, store *storage.Storage, flags Flags, shutdownChannel <-chan interface{}) {

	var wg sync.WaitGroup

	wg.Add(1)
	_, err := webserver.Start(webserver.WebServerArgs{
		Report:          report,
		Ledger:          store,
		BindAddr:        flags.webUIAddr,
		BindPort:        flags.webUIPort,
		ShutdownChannel: shutdownChannel,
		WG:              &wg,
	})
	if err != nil {
		log.WithError(err).Error("Unable to start API server")
		return
	}

	log.Info("Serving run report; interrupt to exit")

	// Wait for threads to finish
	wg.Wait()
}

func setupCloseChannel() chan interface{} {

	// Create channels for signals
	signalChan := make(chan os.Signal, 1)
	closingChan := make(chan interface{}, 1)

	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalChan
		close(closingChan)
	}()

	return closingChan
}

func parseArgs() Flags {

	var f Flags

	flag.StringVar(&f.configFile, "config", config.DEFAULT_CONFIG_FILE, "Participant and wallet configuration")
	flag.StringVar(&f.envFile, "env", ".env", "Environment file providing "+config.RPC_URL_ENV)
	flag.StringVar(&f.rpcURL, "rpc", "", "RPC endpoint; overrides "+config.RPC_URL_ENV)
	flag.StringVar(&f.network, "network", "", "Require the RPC endpoint to be on this network: "+util.AvailableNetworks())

	flag.StringVar(&f.dataDir, "datadir", "./", "Location of database and log files")

	flag.BoolVar(&f.logDebug, "debug", false, "Enable debug-level logging")
	flag.BoolVar(&f.logTrace, "trace", false, "Enable trace-level logging")

	flag.BoolVar(&f.dryRun, "dry-run", false, "Compute rewards and check balances, but don't submit transactions")
	flag.BoolVar(&f.force, "force", false, "Ignore the commit ledger and process every category")

	flag.StringVar(&f.reportFile, "report", "", "Write the run report as JSON to this file")

	flag.BoolVar(&f.serve, "serve", false, "After the run, serve the report and metrics until interrupted")
	flag.StringVar(&f.webUIAddr, "webuiaddr", "127.0.0.1", "Address on which to bind API server")
	flag.IntVar(&f.webUIPort, "webuiport", 8082, "Port on which to bind API server")

	printVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	// Handle print version and exit
	if *printVersion {
		log.Printf("Whitelister %s (%s)", version, commitHash)
		os.Exit(0)
	}

	// Sanity
	if f.network != "" && !util.IsValidNetwork(f.network) {
		log.Errorf("Unknown network: %s", f.network)
		flag.Usage()
		os.Exit(1)
	}

	return f
}
