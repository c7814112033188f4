package config

import (
	"fmt"
	"log"
	"os"
	"sitbook/src/types"
	"strconv"
	"time"
)

const TIME_PARSE_FORMAT = time.RFC3339

const (
	STORE_FIRESTORE = "firestore"
	STORE_POSTGRES  = "postgres"
	STORE_MEMORY    = "memory"
)

// Firestore commits at most 500 writes; a request produces up to 5.
const FIRESTORE_MAX_BATCH = 100

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

func APIEnv() types.Environment {
	return types.Environment(getenv("API_ENV", string(types.Local)))
}

func APIPort() string {
	return getenv("API_PORT", "9090")
}

func StoreDriver() string {
	return getenv("STORE_DRIVER", STORE_FIRESTORE)
}

// ReconcilePolicy returns the deployment's expiration policy. An unknown value is fatal:
// running with the wrong policy would mix outcomes across deployments.
func ReconcilePolicy() types.ExpirationPolicy {
	p := types.ExpirationPolicy(getenv("RECONCILE_POLICY", string(types.POLICY_EXPIRE)))
	if !p.Valid() {
		log.Fatalf("invalid RECONCILE_POLICY %q: want %q or %q", p, types.POLICY_EXPIRE, types.POLICY_ARCHIVE)
	}
	return p
}

func ReconcileInterval() time.Duration {
	return getDuration("RECONCILE_INTERVAL", time.Minute)
}

func ReconcileTimeout() time.Duration {
	return getDuration("RECONCILE_TIMEOUT", 50*time.Second)
}

func ReconcileMaxBatch() int {
	def := 0
	if StoreDriver() == STORE_FIRESTORE {
		def = FIRESTORE_MAX_BATCH
	}
	v := os.Getenv("RECONCILE_MAX_BATCH")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("Invalid RECONCILE_MAX_BATCH %q. Using %d\n", v, def)
		return def
	}
	return n
}

func FirebaseProjectID() string {
	return os.Getenv("FIREBASE_PROJECT_ID")
}

func SecretsDir() string {
	return getenv("SECRETS_DIR", "/secrets")
}

func AdminJWTSecret() []byte {
	return []byte(os.Getenv("ADMIN_JWT_SECRET"))
}

func MaintenanceMode() bool {
	b, err := strconv.ParseBool(getenv("MAINTENANCE_MODE", "false"))
	return err != nil || b
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s %q. Using %s\n", key, v, def)
		return def
	}
	return d
}

func LogStdout() bool {
	b, _ := strconv.ParseBool(os.Getenv("LOG_STDOUT"))
	return b
}

func S3SecretsBucket() string {
	return os.Getenv("S3_SECRETS_BUCKET")
}

func RedisHost() string {
	return os.Getenv("REDIS_HOST")
}

func KafkaBroker() string {
	return os.Getenv("KAFKA_BROKER")
}

func KafkaBookingTopic() string {
	return getenv("KAFKA_BOOKING_TOPIC", "booking-requests")
}

func KafkaGroupID() string {
	return getenv("KAFKA_GROUP_ID", "sitbook-reconciler")
}

func WakeQueue() string {
	return os.Getenv("WAKE_QUEUE")
}

func WakeTopic() string {
	return os.Getenv("WAKE_TOPIC")
}

func SchedulerRoleArn() string {
	return os.Getenv("SCHEDULER_ROLE_ARN")
}

func AWSAccountID() string {
	return os.Getenv("AWS_ACCOUNT_ID")
}

func AWSRegion() string {
	return getenv("AWS_REGION", "ap-southeast-1")
}

func AWSIAMRoleArn() string {
	return os.Getenv("AWS_IAM_ROLE_ARN")
}
