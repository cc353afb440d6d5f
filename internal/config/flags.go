package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN
//	-c/-config json file path with configs
//	-collections comma-separated list of record collections to serve
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-auto-resolve enable the automatic conflict resolution worker
//	-auto-resolve-interval delay between resolution sweeps
//	-auto-resolve-strategy strategy applied by the worker
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var jsonConfigPath string
	var collections string
	var requestTimeout time.Duration
	var autoResolve bool
	var autoResolveInterval time.Duration
	var autoResolveStrategy string

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&collections, "collections", "", "Comma-separated record collections")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.BoolVar(&autoResolve, "auto-resolve", false, "Enable automatic conflict resolution")
	flag.DurationVar(&autoResolveInterval, "auto-resolve-interval", 0, "Auto-resolve sweep interval")
	flag.StringVar(&autoResolveStrategy, "auto-resolve-strategy", "", "Auto-resolve strategy")

	flag.Parse()

	return &StructuredConfig{
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			Collections: splitCollections(collections),
		},
		Workers: Workers{
			AutoResolve: AutoResolve{
				Enabled:  autoResolve,
				Interval: autoResolveInterval,
				Strategy: autoResolveStrategy,
			},
		},
		JSONFilePath: jsonConfigPath,
	}
}

func splitCollections(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	collections := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			collections = append(collections, trimmed)
		}
	}

	return collections
}

// String returns a canonical host:port string for a NetAddress, or an
// empty string when neither host nor port are set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
