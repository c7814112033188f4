package lib

import (
	"context"
	"errors"
	"log"
	"os"
	"path"
	"sitbook/src/config"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

const SDKCredentialsFile = "admin-sdk-credentials.json"

var (
	firebaseMu     sync.Mutex
	innerApp       *firebase.App
	innerMessaging *messaging.Client
	innerFirestore *firestore.Client
)

func getOpts() []option.ClientOption {
	credentials := path.Join(config.SecretsDir(), SDKCredentialsFile)
	if _, err := os.Stat(credentials); errors.Is(err, os.ErrNotExist) {
		log.Printf("[firebase] %s not found. Using application default credentials\n", credentials)
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentials)}
}

func getApp(ctx context.Context) (*firebase.App, error) {
	if innerApp != nil {
		return innerApp, nil
	}
	var conf *firebase.Config
	if projectID := config.FirebaseProjectID(); projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, getOpts()...)
	if err != nil {
		log.Printf("error initializing app: %s\n", err.Error())
		return nil, err
	}
	innerApp = app
	return app, nil
}

func GetFirebaseMessaging() (*messaging.Client, error) {
	firebaseMu.Lock()
	defer firebaseMu.Unlock()
	if innerMessaging != nil {
		return innerMessaging, nil
	}
	app, err := getApp(context.Background())
	if err != nil {
		return nil, err
	}
	msg, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("error initializing FCM: %s\n", err.Error())
		return nil, err
	}
	innerMessaging = msg
	return msg, nil
}

func GetFirestore() (*firestore.Client, error) {
	firebaseMu.Lock()
	defer firebaseMu.Unlock()
	if innerFirestore != nil {
		return innerFirestore, nil
	}
	app, err := getApp(context.Background())
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(context.Background())
	if err != nil {
		log.Printf("error initializing Firestore: %s\n", err.Error())
		return nil, err
	}
	innerFirestore = client
	return client, nil
}

func CloseFirebase() {
	firebaseMu.Lock()
	defer firebaseMu.Unlock()
	if innerFirestore != nil {
		if err := innerFirestore.Close(); err != nil {
			log.Printf("error closing Firestore: %s\n", err.Error())
		}
		innerFirestore = nil
	}
	innerMessaging = nil
	innerApp = nil
}
