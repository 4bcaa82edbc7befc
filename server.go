package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"postfile/handlers"
	"postfile/storage"
	"postfile/storage/file"
	"postfile/storage/in_memory"
	"postfile/storage/persistent"
	"postfile/storage/persistent_cached"
	"postfile/storage/snapshot"
	"postfile/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

type StorageMode string

const (
	File           StorageMode = "file"
	InMemory       StorageMode = "inmemory"
	Mongo          StorageMode = "mongo"
	MongoWithCache StorageMode = "cached"
)

type AppMode string

const (
	ServerMode AppMode = "server"
	WorkerMode AppMode = "worker"
)

type Config struct {
	Port              string
	PublicDir         string
	PostsFile         string
	StorageMode       StorageMode
	SerializeRequests bool
	BrokerUrl         string
	SnapshotDir       string
}

func LoadConfig() Config {
	publicDir := utils.GetEnvVarWithDefault("PUBLIC_DIR", "public")
	return Config{
		Port:              utils.GetEnvVarWithDefault("PORT", "5000"),
		PublicDir:         publicDir,
		PostsFile:         utils.GetEnvVarWithDefault("POSTS_FILE", filepath.Join(publicDir, "posts.json")),
		StorageMode:       StorageMode(utils.GetEnvVarWithDefault("STORAGE_MODE", string(File))),
		SerializeRequests: utils.GetBoolEnvVarWithDefault("SERIALIZE_REQUESTS", false),
		BrokerUrl:         utils.GetEnvVarWithDefault("BROKER_URL", ""),
		SnapshotDir:       utils.GetEnvVarWithDefault("SNAPSHOT_DIR", "snapshots"),
	}
}

func CreateStorage(cfg Config) storage.Storage {
	switch cfg.StorageMode {
	case File:
		return file.CreateFileStorage(cfg.PostsFile)
	case InMemory:
		return in_memory.CreateInMemoryStorage()
	case Mongo:
		return persistent.CreateMongoStorage(utils.GetEnvVar("MONGO_URL"), utils.GetEnvVar("MONGO_DBNAME"))
	case MongoWithCache:
		redisUrl, found := os.LookupEnv("REDIS_URL")
		if !found {
			panic("'REDIS_URL' was not specified for 'cached' STORAGE_MODE")
		}
		persistentStorage := persistent.CreateMongoStorage(utils.GetEnvVar("MONGO_URL"), utils.GetEnvVar("MONGO_DBNAME"))
		return persistent_cached.CreatePersistentStorageCachedWithRedis(persistentStorage, redisUrl)
	}
	panic("Invalid 'STORAGE_MODE'")
}

// CreateRouter wires the posts API in front of the static files of the
// public directory.
func CreateRouter(cfg Config, handler *handlers.HTTPHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(handlers.RequestID, handlers.AccessLog)

	r.HandleFunc("/maintenance/ping", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/posts", handler.HandleGetPosts).Methods("GET")
	r.HandleFunc("/posts", handler.HandleCreatePost).Methods("POST")
	r.HandleFunc("/posts/{id}", handler.HandleUpdatePost).Methods("PUT")
	r.HandleFunc("/posts/{id}", handler.HandleDeletePost).Methods("DELETE")
	r.PathPrefix("/").Handler(http.FileServer(staticFileSystem{http.Dir(cfg.PublicDir)})).Methods("GET", "HEAD")

	return r
}

func CreateHandler(cfg Config, store storage.Storage) *handlers.HTTPHandler {
	handler := &handlers.HTTPHandler{
		Storage:   store,
		Serialize: cfg.SerializeRequests,
	}
	if cfg.BrokerUrl != "" {
		publisher, err := snapshot.CreatePublisher(cfg.BrokerUrl)
		if err != nil {
			panic(err)
		}
		handler.Events = publisher
	}
	return handler
}

func CreateServer(cfg Config) *http.Server {
	handler := CreateHandler(cfg, CreateStorage(cfg))
	return &http.Server{
		Handler: CreateRouter(cfg, handler),
		Addr:    "0.0.0.0:" + cfg.Port,
	}
}

func CreateWorker(cfg Config) error {
	if cfg.BrokerUrl == "" {
		panic("'BROKER_URL' not specified for worker mode")
	}
	snapshotter := &snapshot.Snapshotter{
		Storage: CreateStorage(cfg),
		Dir:     cfg.SnapshotDir,
	}
	return snapshot.CreateWorker(cfg.BrokerUrl, snapshotter)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := LoadConfig()
	switch AppMode(utils.GetEnvVarWithDefault("APP_MODE", string(ServerMode))) {
	case ServerMode:
		srv := CreateServer(cfg)
		log.Printf("Server is running on http://localhost:%s", cfg.Port)
		log.Fatal(srv.ListenAndServe())
	case WorkerMode:
		if err := CreateWorker(cfg); err != nil {
			log.Fatal(err)
		}
	default:
		panic("Invalid 'APP_MODE'")
	}
}
