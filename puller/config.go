package puller

import (
	"database/sql"
	"flag"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/jinzhu/gorm"
	"github.com/pressly/goose"
	"github.com/zyjblockchain/sandy_log/log"
	"tezos_etl/common"
	"tezos_etl/puller/index"
	_ "tezos_etl/puller/migration"
	"tezos_etl/puller/models"
	"tezos_etl/rpc"
)

type Configuration struct {
	Mysql                    string
	Redis                    string
	ProxyUrl                 string
	Network                  string
	NodeProtocol             string
	NodeHost                 string
	NodePort                 int
	NodePathPrefix           string
	FetchConcurrency         int
	AccountsFetchConcurrency int
	BatchSize                int
	IdleInterval             time.Duration
	FeeWindow                int
	RetryAttempts            int
	Verbose                  int
}

type Environment struct {
	Conf        Configuration
	Engine      *gorm.DB
	Client      *rpc.Client
	RedisClient *redis.Client
}

func NewEnvironment() *Environment {
	flag.String("mysql", common.DefaultString, "mysql uri like 'user:pass@tcp(ip:port)/database'")
	flag.String("redis", common.DefaultString, "redis url like 'redis://localhost:6379/1'")
	flag.String("proxy", common.DefaultString, "outbound http proxy url")
	flag.String("network", common.DefaultString, "chain network name, e.g. mainnet")
	flag.String("node-protocol", common.DefaultString, "node rpc scheme, http or https")
	flag.String("node-host", common.DefaultString, "node rpc host")
	flag.Int("node-port", common.DefaultInt, "node rpc port")
	flag.String("node-path-prefix", common.DefaultString, "node rpc path prefix")
	flag.Int("fetch-concurrency", common.DefaultInt, "parallel rpc requests for blocks and operations")
	flag.Int("accounts-fetch-concurrency", common.DefaultInt, "parallel rpc requests for the account drain")
	flag.Int("batch-size", common.DefaultInt, "blocks per walker batch")
	flag.String("idle-interval", common.DefaultString, "sleep between cycles, e.g. 5s")
	flag.Int("fee-window", common.DefaultInt, "operations per fee aggregation")
	flag.Int("retry-attempts", common.DefaultInt, "transport retries within one cycle")
	flag.Int("verbose", common.DefaultInt, "print verbose message")

	viperConfig := common.NewViperConfig()

	domain := "tezos"

	conf := Configuration{}

	conf.Verbose = viperConfig.GetInt("", "verbose")

	conf.Redis = viperConfig.GetString(domain, "redis")
	if conf.Redis == "" {
		log.Crit("please set redis connection info")
		panic("system fail")
	}
	spl := strings.Split(strings.TrimPrefix(conf.Redis, "redis://"), "/")
	db, _ := strconv.Atoi(spl[1])
	redisClient := redis.NewClient(&redis.Options{
		Addr:     spl[0],
		Password: "",
		DB:       db,
	})

	conf.Mysql = viperConfig.GetString(domain, "mysql")
	if conf.Mysql == "" {
		log.Crit("please set mysql connection info")
		panic("system fail")
	}
	engine := index.InitDB(conf.Mysql)

	conf.Network = viperConfig.GetString(domain, "network")
	conf.NodeProtocol = viperConfig.GetString(domain, "node-protocol")
	if conf.NodeProtocol == "" {
		conf.NodeProtocol = "https"
	}
	conf.NodeHost = viperConfig.GetString(domain, "node-host")
	if conf.NodeHost == "" {
		log.Crit("please set the node rpc host")
		panic("system fail")
	}
	conf.NodePort = viperConfig.GetInt(domain, "node-port")
	if conf.NodePort == 0 {
		conf.NodePort = 443
	}
	conf.NodePathPrefix = viperConfig.GetString(domain, "node-path-prefix")

	httpClient := http.DefaultClient
	pUrl := viperConfig.GetString(domain, "proxy")
	if pUrl != "" {
		proxyUrl, err := url.Parse(pUrl)
		if err != nil {
			log.Errorf("url parse error: %v", err)
			panic(err)
		}
		tr := &http.Transport{Proxy: http.ProxyURL(proxyUrl)}
		httpClient = &http.Client{Transport: tr}
	}
	node := rpc.NodeConfig{
		Protocol:   conf.NodeProtocol,
		Host:       conf.NodeHost,
		Port:       conf.NodePort,
		PathPrefix: conf.NodePathPrefix,
	}
	client, err := rpc.NewClient(httpClient, node.BaseURL(), conf.Network)
	if err != nil {
		log.Errorf("connect node client error: %v", err)
		panic("connect node error")
	}

	conf.FetchConcurrency = viperConfig.GetInt(domain, "fetch-concurrency")
	conf.AccountsFetchConcurrency = viperConfig.GetInt(domain, "accounts-fetch-concurrency")
	conf.BatchSize = viperConfig.GetInt(domain, "batch-size")
	conf.IdleInterval = viperConfig.GetDuration(domain, "idle-interval")
	conf.FeeWindow = viperConfig.GetInt(domain, "fee-window")
	conf.RetryAttempts = viperConfig.GetInt(domain, "retry-attempts")

	return &Environment{Conf: conf, Engine: engine, Client: client, RedisClient: redisClient}
}

func (e *Environment) NewPuller() *Crawler {
	indexer := NewIndexer(IndexerConfig{
		StateDB: e.Engine,
		CacheDB: e.RedisClient,
		Indexes: []models.BlockIndexer{ // order matters, it establishes fk closure
			index.NewBlockIndex(e.Engine),
			index.NewOpIndex(e.Engine),
			index.NewRightsIndex(e.Engine),
			index.NewGovIndex(e.Engine),
			index.NewAccountIndex(e.Engine),
			index.NewDelegateIndex(e.Engine),
		},
	})

	cf := CrawlerConfig{
		DB:                       e.Engine,
		Indexer:                  indexer,
		Client:                   e.Client,
		FetchConcurrency:         e.Conf.FetchConcurrency,
		AccountsFetchConcurrency: e.Conf.AccountsFetchConcurrency,
		BatchSize:                e.Conf.BatchSize,
		IdleInterval:             e.Conf.IdleInterval,
		FeeWindow:                e.Conf.FeeWindow,
		RetryAttempts:            e.Conf.RetryAttempts,
	}
	return NewCrawler(cf)
}

// UpgradeSchema auto migrate
func (e *Environment) UpgradeSchema() {
	if err := upgrade(e.Conf.Mysql); err != nil {
		log.Crit("upgrade database", "uri", e.Conf.Mysql, "err", err)
		panic("system fail")
	}
}

// RollbackSchema when need to rollback database
func (e *Environment) RollbackSchema(version string) {
	if err := rollback(e.Conf.Mysql, version); err != nil {
		log.Crit("rollback database", "uri", e.Conf.Mysql, "err", err)
		panic("system fail")
	}
}

func upgrade(dsn string) error {
	var err error
	var db *sql.DB

	db, err = sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	err = goose.SetDialect("mysql")
	if err != nil {
		return err
	}
	err = goose.Run("up", db, ".")
	if err != nil {
		return err
	}

	return nil
}

func rollback(dsn string, version string) error {
	var err error
	var db *sql.DB

	db, err = sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	err = goose.SetDialect("mysql")
	if err != nil {
		return err
	}
	if version == "" {
		err = goose.Run("down", db, ".")
	} else {
		err = goose.Run("down-to", db, ".", version)
	}
	return err
}
