package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// reconnectInterval is the delay between reconnection attempts
const reconnectInterval = 15 * time.Second

// MongoStore implements Store over MongoDB collections
type MongoStore struct {
	client          *mongo.Client
	db              *mongo.Database
	IsConnected     bool
	reconnectTicker *time.Ticker
	stopReconnect   chan struct{}
	closeOnce       sync.Once
	mu              sync.RWMutex
	collections     map[string]*mongo.Collection
}

var (
	mongoStore *MongoStore
	mongoOnce  sync.Once
)

// InitMongo initializes the global MongoDB store
func InitMongo(mongoURL, dbName string) (*MongoStore, error) {
	var err error
	mongoOnce.Do(func() {
		mongoStore = NewMongoStore()
		err = mongoStore.Connect(mongoURL, dbName)
	})
	return mongoStore, err
}

// GetMongo returns the global MongoDB store
func GetMongo() *MongoStore {
	return mongoStore
}

// NewMongoStore creates a disconnected MongoStore
func NewMongoStore() *MongoStore {
	return &MongoStore{
		stopReconnect: make(chan struct{}),
		collections:   make(map[string]*mongo.Collection),
	}
}

// Connect establishes a connection to MongoDB. On failure a background
// ticker keeps retrying until it succeeds or the store is closed.
func (d *MongoStore) Connect(mongoURL, dbName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.IsConnected {
		return nil
	}

	logger.System("Intentando conectar a la base de datos...", "DB")

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(mongoURL).
		SetServerSelectionTimeout(defaultTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Critical("Fallo al conectar con la base de datos.", "DB")
		d.scheduleReconnect(mongoURL, dbName)
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Critical("Fallo al verificar conexión con la base de datos.", "DB")
		_ = client.Disconnect(ctx)
		d.scheduleReconnect(mongoURL, dbName)
		return err
	}

	d.client = client
	d.db = client.Database(dbName)
	d.collections = make(map[string]*mongo.Collection)
	d.IsConnected = true

	logger.Success("Conectado exitosamente a la base de datos.", "DB")

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}

	go d.ensureIndexes()

	return nil
}

// scheduleReconnect starts the reconnection loop (caller holds d.mu)
func (d *MongoStore) scheduleReconnect(mongoURL, dbName string) {
	if d.IsConnected {
		d.IsConnected = false
		logger.Warn("Se perdió la conexión con la base de datos.", "DB")
	}
	if d.reconnectTicker != nil {
		return
	}

	ticker := time.NewTicker(reconnectInterval)
	d.reconnectTicker = ticker
	go func() {
		for {
			select {
			case <-ticker.C:
				logger.Info("Intentando reconectar a la base de datos...", "DB")
				if err := d.Connect(mongoURL, dbName); err == nil {
					return
				}
			case <-d.stopReconnect:
				return
			}
		}
	}()
}

// ensureIndexes creates the unique scopes of the moderation collections
func (d *MongoStore) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := map[string]mongo.IndexModel{
		models.TableBlockedWords: {
			Keys:    bson.D{{Key: "word", Value: 1}, {Key: models.ColGuildID, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_blocked_words_scope"),
		},
		models.TableUserWarns: {
			Keys:    bson.D{{Key: models.ColUserID, Value: 1}, {Key: models.ColGuildID, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_warns_scope"),
		},
		models.TableSystemLogs: {
			Keys:    bson.D{{Key: models.ColCreatedAt, Value: -1}},
			Options: options.Index().SetName("idx_system_logs_created"),
		},
	}

	for name, model := range indexes {
		col := d.collection(name)
		if col == nil {
			return
		}
		if _, err := col.Indexes().CreateOne(ctx, model); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo crear el índice de '%s': %v", name, err), "DB")
		}
	}
}

// Close stops reconnection attempts and disconnects the client
func (d *MongoStore) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}
	d.closeOnce.Do(func() { close(d.stopReconnect) })

	if d.client == nil {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if err := d.client.Disconnect(ctx); err != nil {
		return err
	}
	d.IsConnected = false
	logger.Warn("La base de datos ha sido desconectada", "DB")
	return nil
}

// Ping measures the database response time
func (d *MongoStore) Ping() (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.IsConnected || d.client == nil {
		return 0, ErrNotConnected
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	err := d.client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// Status returns the database connection status
func (d *MongoStore) Status(ctx context.Context) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.client == nil {
		return "🔴 | Desconectado", false
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.client.Ping(ctx, readpref.Primary()); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

func (d *MongoStore) collection(name string) *mongo.Collection {
	d.mu.RLock()
	if col, exists := d.collections[name]; exists {
		d.mu.RUnlock()
		return col
	}
	db := d.db
	d.mu.RUnlock()

	if db == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	col := db.Collection(name)
	d.collections[name] = col
	return col
}

func (d *MongoStore) liveCollection(name string) (*mongo.Collection, error) {
	d.mu.RLock()
	connected := d.IsConnected
	d.mu.RUnlock()
	if !connected {
		return nil, ErrNotConnected
	}
	col := d.collection(name)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

// Select returns the documents of a collection matching filters
func (d *MongoStore) Select(ctx context.Context, table string, filters Filters, opts ...SelectOption) ([]Row, error) {
	col, err := d.liveCollection(table)
	if err != nil {
		return nil, err
	}
	q := BuildSelectQuery(opts...)

	findOpts := options.Find().SetProjection(bson.M{"_id": 0})
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := col.Find(ctx, toBSON(filters), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, Row(doc))
	}
	return rows, nil
}

// Insert adds documents to a collection
func (d *MongoStore) Insert(ctx context.Context, table string, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	col, err := d.liveCollection(table)
	if err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, bson.M(row))
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := col.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	return nil
}

// Upsert sets the fields of the document matching conflictKey, creating it if needed
func (d *MongoStore) Upsert(ctx context.Context, table string, row Row, conflictKey ...string) error {
	col, err := d.liveCollection(table)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := toBSON(keyFilters(row, conflictKey))
	_, err = col.UpdateOne(ctx, filter, bson.M{"$set": bson.M(row)}, options.Update().SetUpsert(true))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// Delete removes every document matching filters
func (d *MongoStore) Delete(ctx context.Context, table string, filters Filters) error {
	if len(filters) == 0 {
		return fmt.Errorf("delete sin filtros en '%s'", table)
	}
	col, err := d.liveCollection(table)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err = col.DeleteMany(ctx, toBSON(filters))
	return err
}

// Client returns the underlying MongoDB client
func (d *MongoStore) Client() *mongo.Client {
	return d.client
}

// toBSON converts equality filters; nil matches null or missing fields
func toBSON(filters Filters) bson.M {
	out := bson.M{}
	for k, v := range filters {
		out[k] = v
	}
	return out
}
