package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/chewcw/pnio-hart/config"
	"github.com/chewcw/pnio-hart/sink"
	"github.com/chewcw/pnio-hart/worker"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	mode             = flag.String("mode", "local", "Working mode: 'local' (poll a YAML config file) or 'iotedge' (poll an Azure IoT Hub module twin)")
	configPath       = flag.String("config", "", "Path to the local YAML device config (required in local mode)")
	interval         = flag.Int("interval", 30, "Seconds to sleep between reconcile+read cycles")
	connectionString = flag.String("connection-string", "", "Azure IoT Hub device/module connection string for the IoT Hub sink; an empty value is not replaced by IoT Edge runtime settings, and in iotedge mode the module twin is followed only when it is set")
	srcIPAddress     = flag.String("src-ip-address", "", "Local IPv4 address to bind the PNIO/HART UDP sockets to")
	metricsPort      = flag.String("metrics-port", ":9090", "Prometheus metrics export address and port")
	mqttBroker       = flag.String("mqtt-broker", "", "MQTT broker URL (e.g. tcp://localhost:1883); when set, messages are published over MQTT instead of IoT Hub")
	mqttTopic        = flag.String("mqtt-topic", "pnio-hart/responses", "MQTT topic to publish HART command responses to")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		log.Printf("received shutdown signal %v", sig)
		cancel()
	}()

	promSrv := prometheusx.MustStartPrometheus(*metricsPort)
	defer promSrv.Shutdown(ctx)

	store := config.NewStore()
	var msgSink sink.MessageSink

	switch *mode {
	case "iotedge":
		var twinSource *config.TwinSource
		if *connectionString != "" {
			twinSource = config.NewTwinSource(store)
		}
		iotSink, err := sink.NewIoTHubSink(ctx, *connectionString, twinSource)
		rtx.Must(err, "could not start iothub sink")
		defer iotSink.Close()
		msgSink = iotSink

	case "local":
		rtx.Must(requireFlag(*configPath, "config"), "config file path is required in local mode")
		fileSource, err := config.NewFileSource(*configPath, store)
		rtx.Must(err, "could not load local config %s", *configPath)
		defer fileSource.Close()

		if *mqttBroker != "" {
			mqttSink, err := sink.NewMQTTSink(*mqttBroker, "pnio-hart", *mqttTopic, 1)
			rtx.Must(err, "could not start mqtt sink")
			defer mqttSink.Close()
			msgSink = mqttSink
		} else {
			iotSink, err := sink.NewIoTHubSink(ctx, *connectionString, nil)
			rtx.Must(err, "could not start iothub sink")
			defer iotSink.Close()
			msgSink = iotSink
		}

	default:
		rtx.Must(os.ErrInvalid, "unknown --mode %q, want 'local' or 'iotedge'", *mode)
	}

	srcIP := net.ParseIP(*srcIPAddress)
	rtx.Must(requireIP(srcIP), "invalid --src-ip-address %q", *srcIPAddress)

	w := worker.New(msgSink, store)
	w.Run(ctx, srcIP, time.Duration(*interval)*time.Second)
}

func requireFlag(v, name string) error {
	if v == "" {
		return &flagRequiredError{name}
	}
	return nil
}

type flagRequiredError struct{ name string }

func (e *flagRequiredError) Error() string { return "--" + e.name + " is required" }

func requireIP(ip net.IP) error {
	if ip == nil {
		return os.ErrInvalid
	}
	return nil
}
