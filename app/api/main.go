package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/database/mongoclient"
	"github.com/mintgate/goapi/base/database/redisclient"
	"github.com/mintgate/goapi/base/log"
	"github.com/mintgate/goapi/base/metrics"
	bValidator "github.com/mintgate/goapi/base/validator"
	"github.com/mintgate/goapi/domain"
	mmiddleware "github.com/mintgate/goapi/middleware"
	"github.com/mintgate/goapi/service/chain"
	"github.com/mintgate/goapi/service/chain/contract"
	"github.com/mintgate/goapi/service/discord"
	"github.com/mintgate/goapi/service/ens"
	"github.com/mintgate/goapi/service/query"
	"github.com/mintgate/goapi/service/redis"
	accessrule_delivery "github.com/mintgate/goapi/stores/accessrule/delivery/http"
	accessrule_repository "github.com/mintgate/goapi/stores/accessrule/repository"
	accessrule_usecase "github.com/mintgate/goapi/stores/accessrule/usecase"
	account_delivery "github.com/mintgate/goapi/stores/account/delivery/http"
	account_repository "github.com/mintgate/goapi/stores/account/repository"
	account_usecase "github.com/mintgate/goapi/stores/account/usecase"
	auth_delivery "github.com/mintgate/goapi/stores/auth/delivery/http"
	auth_middleware "github.com/mintgate/goapi/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/mintgate/goapi/stores/auth/usecase"
	collection_delivery "github.com/mintgate/goapi/stores/collection/delivery/http"
	collection_repository "github.com/mintgate/goapi/stores/collection/repository"
	collection_usecase "github.com/mintgate/goapi/stores/collection/usecase"
	event_delivery "github.com/mintgate/goapi/stores/event/delivery/http"
	event_repository "github.com/mintgate/goapi/stores/event/repository"
	hc_delivery "github.com/mintgate/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/mintgate/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/mintgate/goapi/stores/healthcheck/usecase"
	token_delivery "github.com/mintgate/goapi/stores/token/delivery/http"
	token_repository "github.com/mintgate/goapi/stores/token/repository"
	token_usecase "github.com/mintgate/goapi/stores/token/usecase"

	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mintgate/goapi/app/api/docs"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

//	@title			MintGate Launchpad API
//	@version		1.0
//	@description	API Document for the MintGate launchpad and token gating service.

// main
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				retrive token from #/auth/post_auth_sign and apply with `bearer {token}`
func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init Redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)

	// init chain service
	networks := viper.Sub("networks")
	keys := networks.AllSettings()
	rpcs := make(map[int32]string)
	archiveRpcs := make(map[int32]string)
	for k := range keys {
		chainId := networks.GetInt32(fmt.Sprintf("%s.chainId", k))
		rpcUrl := networks.GetString(fmt.Sprintf("%s.rpcUrl", k))
		rpcs[chainId] = rpcUrl
		archiveRpcUrl := networks.GetString(fmt.Sprintf("%s.archiveRpcUrl", k))
		archiveRpcs[chainId] = archiveRpcUrl
	}
	chainService, err := chain.NewClient(context, &chain.ClientCfg{
		RpcUrls:        rpcs,
		ArchiveRpcUrls: archiveRpcs,
	})
	if err != nil {
		context.WithField("err", err).Warn("chainService started with error")
	}
	erc721Service := contract.NewErc721(chainService)

	// ens on ethereum
	ensService := ens.New(rpcs[1], redisCache)

	var notifier discord.Notifier
	if botKey := viper.GetString("discord.botKey"); botKey != "" {
		notifier = discord.New(botKey, viper.GetString("discord.channelId"))
	}

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	accountRepo := account_repository.New(q, redisCache)
	collectionRepo := collection_repository.NewCollection(q)
	mintCountRepo := collection_repository.NewMintCount(q)
	claimRepo := collection_repository.NewWhitelistClaim(q)
	tokenRepo := token_repository.NewToken(q)
	contentGrantRepo := token_repository.NewContentGrant(q)
	ruleRepo := accessrule_repository.NewAccessRule(q)
	grantRepo := accessrule_repository.NewGrant(q)
	eventRepo := event_repository.New(q)

	hc := hc_usecase.New(hcRepo)
	account := account_usecase.New(&account_usecase.AccountUseCaseCfg{
		Repo:         accountRepo,
		SignatureMsg: viper.GetString("auth.signatureMsg"),
	})
	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), account)
	collection := collection_usecase.NewCollection(&collection_usecase.CollectionUseCaseCfg{
		CollectionRepo: collectionRepo,
		MintCountRepo:  mintCountRepo,
		ClaimRepo:      claimRepo,
		TokenRepo:      tokenRepo,
		EventRepo:      eventRepo,
	})
	token := token_usecase.New(&token_usecase.TokenUseCaseCfg{
		TokenRepo:        tokenRepo,
		ContentGrantRepo: contentGrantRepo,
		CollectionRepo:   collectionRepo,
		Erc721:           erc721Service,
		EventRepo:        eventRepo,
	})
	adminAddresses := viper.GetStringSlice("admin.addresses")
	admins := make([]domain.Address, 0, len(adminAddresses))
	for _, a := range adminAddresses {
		admins = append(admins, domain.Address(a))
	}

	accessrule := accessrule_usecase.New(&accessrule_usecase.AccessRuleUseCaseCfg{
		RuleRepo:    ruleRepo,
		GrantRepo:   grantRepo,
		TokenUC:     token,
		EventRepo:   eventRepo,
		Ens:         ensService,
		Notifier:    notifier,
		CreationFee: viper.GetString("gating.creationFee"),
		Admins:      admins,
		Paused:      viper.GetBool("gating.paused"),
	})

	auth_middleware := auth_middleware.New(auth, adminAddresses)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth, viper.GetString("auth.signatureMsg"))
	account_delivery.New(e, account, auth_middleware)
	collection_delivery.New(e, collection, auth_middleware)
	token_delivery.New(e, token, auth_middleware)
	accessrule_delivery.New(e, accessrule, auth_middleware)
	event_delivery.New(e, eventRepo)

	e.GET("/check", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"address": c.Get("address").(domain.Address),
		})
	}, auth_middleware.Auth())

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
