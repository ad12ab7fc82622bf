package main

import (
	"context"
	"database/sql"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/services"
	"github.com/lettermail/go-lettermail-server/types"
)

// Configure the database connection and run pending migrations
func ConfigDatabase() *sql.DB {
	db, err := repository.NewDB(global.Conf.Database.DSN)
	if err != nil {
		global.Logger.Log("error", "failed to connect to database", "error", err.Error())
		panic(err)
	}
	if mErr := repository.RunMigrations(context.Background(), db); mErr != nil {
		global.Logger.Log("error", "failed to run migrations", "error", mErr.Error())
		panic(mErr)
	}
	return db
}

func ConfigS3Storage(conf *global.Config, env *types.Environment) {
	// configure S3 storage
	credentials := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(conf.Storage.Key, conf.Storage.Secret, ""))
	opts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials),
		config.WithRegion(conf.Storage.Region),
	}
	awsConf, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		panic(err)
	}

	s3Client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		// minio and other S3 compatible endpoints
		if conf.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(s3Client)
	downloader := manager.NewDownloader(s3Client)
	env.AddS3Uploader(uploader)
	env.AddS3Downloader(downloader)

	env.S3Client = s3Client
}

// ConfigSessionSweeper schedules the periodic removal of expired sessions.
func ConfigSessionSweeper(db *sql.DB, env *types.Environment) {
	sessionRepo := repository.NewSessionRepository(db)
	sessionService := services.NewSessionService(sessionRepo, global.Conf.Session.DurationHours)

	env.Cron.AddFunc("@every 5m", sessionService.RemoveExpiredSessions)
	env.Cron.Start()
	go sessionService.RemoveExpiredSessions() // run once on startup
}
