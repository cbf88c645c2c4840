package configuration

import "github.com/adampresley/configinator"

type Config struct {
	AwsEndpointUrl       string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion            string `flag:"awsregion" env:"AWS_REGION" default:"us-central-1" description:"AWS region"`
	AwsAccessKeyId       string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey   string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket            string `flag:"awsbucket" env:"AWS_BUCKET" default:"darkroom" description:"S3 bucket used when the storage backend is s3"`
	BaseURL              string `flag:"baseurl" env:"BASE_URL" default:"http://localhost:8081" description:"Public base URL used in portal, display and download links"`
	CookieSecret         string `flag:"cookiesecret" env:"COOKIE_SECRET" default:"password" description:"Secret for encoding cookies"`
	DSN                  string `flag:"dsn" env:"DSN" default:"file:./data/darkroom.db?_pragma=foreign_keys(1)" description:"Data source name"`
	EmailApiKey          string `flag:"emailapikey" env:"EMAIL_API_KEY" default:"" description:"Resend API key, used when the mail provider is resend"`
	ExportExpirationDays int    `flag:"exportexpiration" env:"EXPORT_EXPIRATION_DAYS" default:"0" description:"Days before selection bundles are removed. 0 keeps them forever"`
	ExportFolder         string `flag:"exportfolder" env:"EXPORT_FOLDER" default:"./data/exports" description:"Folder (or S3 prefix) for selection bundles"`
	Host                 string `flag:"host" env:"HOST" default:"localhost:8081" description:"The address and port to bind the HTTP server to"`
	LogLevel             string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MailFromEmail        string `flag:"mailfromemail" env:"MAIL_FROM_EMAIL" default:"noreply@localhost" description:"Default sender address"`
	MailFromName         string `flag:"mailfromname" env:"MAIL_FROM_NAME" default:"Darkroom" description:"Default sender name"`
	MailPassword         string `flag:"mailpassword" env:"MAIL_PASSWORD" default:"" description:"SMTP password"`
	MailPort             int    `flag:"mailport" env:"MAIL_PORT" default:"587" description:"SMTP port"`
	MailProvider         string `flag:"mailprovider" env:"MAIL_PROVIDER" default:"smtp" description:"Mail provider. Valid values are 'smtp' and 'resend'"`
	MailServer           string `flag:"mailserver" env:"MAIL_SERVER" default:"localhost" description:"SMTP server"`
	MailUsername         string `flag:"mailusername" env:"MAIL_USERNAME" default:"" description:"SMTP user name"`
	MailUseTLS           bool   `flag:"mailusetls" env:"MAIL_USE_TLS" default:"true" description:"Use TLS when talking to the SMTP server"`
	MaxThumbnailWorkers  int    `flag:"mtw" env:"MAX_THUMBNAIL_WORKERS" default:"4" description:"Maximum number of concurrent thumbnail workers"`
	OperatorEmail        string `flag:"operatoremail" env:"OPERATOR_EMAIL" default:"studio@localhost" description:"Address that receives retouch and support requests"`
	PortalRateBurst      int    `flag:"portalburst" env:"PORTAL_RATE_BURST" default:"30" description:"Burst size for portal requests per client address"`
	PortalRateLimit      int    `flag:"portalrate" env:"PORTAL_RATE_LIMIT" default:"5" description:"Sustained portal requests per second per client address"`
	StorageBackend       string `flag:"storage" env:"STORAGE_BACKEND" default:"disk" description:"Where files are kept. Valid values are 'disk' and 's3'"`
	ThumbnailFolder      string `flag:"thumbnailfolder" env:"THUMBNAIL_FOLDER" default:"./data/thumbnails" description:"Folder (or S3 prefix) for thumbnails"`
	UploadFolder         string `flag:"uploadfolder" env:"UPLOAD_FOLDER" default:"./data/uploads" description:"Folder (or S3 prefix) for uploaded photos"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
