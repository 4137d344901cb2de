package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/pkg/metrics"
)

const (
	colProducts  = "products"
	colOrders    = "orders"
	colUsers     = "users"
	colCarts     = "carts"
	colFavorites = "favorites"
)

// MongoStore is the production Store. Transactions need a replica set or a
// sharded cluster.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// ConnectMongo dials uri, pings the primary and selects database.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	const op = "repositories.ConnectMongo"

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &MongoStore{client: client, db: client.Database(database), now: time.Now}, nil
}

func (s *MongoStore) col(name string) *mongo.Collection { return s.db.Collection(name) }

// RunInTransaction uses the driver's WithTransaction, which retries the body on
// TransientTransactionError and the commit on UnknownTransactionCommitResult.
func (s *MongoStore) RunInTransaction(ctx context.Context, fn TxFunc) error {
	defer metrics.ObserveStoreOp("transaction", time.Now())

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("repositories.RunInTransaction: start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, &mongoTx{s: s})
	}, txOpts)
	return err
}

func (s *MongoStore) Products() ProductRepository   { return mongoProducts{s} }
func (s *MongoStore) Orders() OrderRepository       { return mongoOrders{s} }
func (s *MongoStore) Carts() CartRepository         { return mongoCarts{s} }
func (s *MongoStore) Favorites() FavoriteRepository { return mongoFavorites{s} }
func (s *MongoStore) Users() UserRepository         { return mongoUsers{s} }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the listing queries rely on. It is
// idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	const op = "repositories.EnsureIndexes"

	indexes := map[string][]mongo.IndexModel{
		colProducts: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colCarts: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		colFavorites: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("%s: %s: %w", op, name, err)
		}
	}
	return nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}

func orderSet(patch models.OrderPatch) bson.M {
	set := bson.M{}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.PaymentStatus != nil {
		set["paymentStatus"] = *patch.PaymentStatus
	}
	if patch.PaymentSessionID != nil {
		set["paymentSessionId"] = *patch.PaymentSessionID
	}
	if patch.ShippedAt != nil {
		set["shippedAt"] = *patch.ShippedAt
	}
	if !patch.UpdatedAt.IsZero() {
		set["updatedAt"] = patch.UpdatedAt
	}
	return set
}

// stockUpdate replaces whichever stock form a document carries, legacy
// stockBySize included, with the one in stock.
func stockUpdate(stock ProductStock, now time.Time) bson.M {
	if stock.Sizes != nil {
		return bson.M{
			"$set":   bson.M{"sizes": stock.Sizes, "updatedAt": now},
			"$unset": bson.M{"totalStock": "", "stockBySize": ""},
		}
	}
	total := 0
	if stock.TotalStock != nil {
		total = *stock.TotalStock
	}
	return bson.M{
		"$set":   bson.M{"totalStock": total, "updatedAt": now},
		"$unset": bson.M{"sizes": "", "stockBySize": ""},
	}
}

// ─────────────────────────────────────────────
// Transaction
// ─────────────────────────────────────────────

type mongoTx struct{ s *MongoStore }

func (t *mongoTx) FindOrder(ctx context.Context, id string) (models.Order, error) {
	var d orderDoc
	if err := t.s.col(colOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Order{}, notFound(err, "order", id)
	}
	return d.model(), nil
}

func (t *mongoTx) FindProduct(ctx context.Context, id string) (models.Product, error) {
	var d productDoc
	if err := t.s.col(colProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Product{}, notFound(err, "product", id)
	}
	return d.model(), nil
}

func (t *mongoTx) SetProductStock(ctx context.Context, id string, stock ProductStock) error {
	res, err := t.s.col(colProducts).UpdateOne(ctx, bson.M{"_id": id}, stockUpdate(stock, t.s.now()))
	if err != nil {
		return fmt.Errorf("product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

func (t *mongoTx) UpdateProduct(ctx context.Context, p models.Product) error {
	return mongoProducts{t.s}.Update(ctx, p)
}

func (t *mongoTx) UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) error {
	return mongoOrders{t.s}.Update(ctx, id, patch)
}

// ─────────────────────────────────────────────
// Products
// ─────────────────────────────────────────────

type mongoProducts struct{ s *MongoStore }

func (r mongoProducts) Create(ctx context.Context, p models.Product) error {
	defer metrics.ObserveStoreOp("products.create", time.Now())

	if _, err := r.s.col(colProducts).InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product %s: %w", p.ID, ErrDuplicate)
		}
		return fmt.Errorf("product %s: %w", p.ID, err)
	}
	return nil
}

func (r mongoProducts) FindByID(ctx context.Context, id string) (models.Product, error) {
	defer metrics.ObserveStoreOp("products.find", time.Now())
	return (&mongoTx{r.s}).FindProduct(ctx, id)
}

func (r mongoProducts) List(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	defer metrics.ObserveStoreOp("products.list", time.Now())

	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.ActiveOnly {
		filter["isActive"] = bson.M{"$ne": false}
	}
	if len(q.IDs) > 0 {
		filter["_id"] = bson.M{"$in": q.IDs}
	}
	if q.Search != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := r.s.col(colProducts).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("products.list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Product{}
	for cur.Next(ctx) {
		var d productDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("products.list: decode: %w", err)
		}
		out = append(out, d.model())
	}
	return out, cur.Err()
}

func (r mongoProducts) Update(ctx context.Context, p models.Product) error {
	defer metrics.ObserveStoreOp("products.update", time.Now())

	set := bson.M{
		"title":       p.Title,
		"description": p.Description,
		"price":       p.Price,
		"currency":    p.Currency,
		"category":    p.Category,
		"images":      p.Images,
		"colors":      p.Colors,
		"rating":      p.Rating,
		"tags":        p.Tags,
		"isActive":    p.IsActive,
		"updatedAt":   p.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if p.SalePrice != nil {
		set["salePrice"] = *p.SalePrice
	} else {
		update["$unset"] = bson.M{"salePrice": ""}
	}

	res, err := r.s.col(colProducts).UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return fmt.Errorf("product %s: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r mongoProducts) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp("products.delete", time.Now())

	res, err := r.s.col(colProducts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// ─────────────────────────────────────────────
// Orders
// ─────────────────────────────────────────────

type mongoOrders struct{ s *MongoStore }

func (r mongoOrders) Create(ctx context.Context, o models.Order) error {
	defer metrics.ObserveStoreOp("orders.create", time.Now())

	if _, err := r.s.col(colOrders).InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("order %s: %w", o.ID, ErrDuplicate)
		}
		return fmt.Errorf("order %s: %w", o.ID, err)
	}
	return nil
}

func (r mongoOrders) FindByID(ctx context.Context, id string) (models.Order, error) {
	defer metrics.ObserveStoreOp("orders.find", time.Now())
	return (&mongoTx{r.s}).FindOrder(ctx, id)
}

func (r mongoOrders) List(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	defer metrics.ObserveStoreOp("orders.list", time.Now())

	filter := bson.M{}
	if q.UserID != "" {
		filter["userId"] = q.UserID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := r.s.col(colOrders).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("orders.list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Order{}
	for cur.Next(ctx) {
		var d orderDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("orders.list: decode: %w", err)
		}
		out = append(out, d.model())
	}
	return out, cur.Err()
}

func (r mongoOrders) Update(ctx context.Context, id string, patch models.OrderPatch) error {
	defer metrics.ObserveStoreOp("orders.update", time.Now())

	set := orderSet(patch)
	if len(set) == 0 {
		return nil
	}
	res, err := r.s.col(colOrders).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("order %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r mongoOrders) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveStoreOp("orders.delete", time.Now())

	res, err := r.s.col(colOrders).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("order %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}

// ─────────────────────────────────────────────
// Carts and favorites
// ─────────────────────────────────────────────

type cartDoc struct {
	ID     string          `bson:"_id"`
	UserID string          `bson:"userId"`
	Item   models.CartItem `bson:",inline"`
}

func ownedID(userID, key string) string { return userID + "/" + key }

type mongoCarts struct{ s *MongoStore }

func (r mongoCarts) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	defer metrics.ObserveStoreOp("carts.list", time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.s.col(colCarts).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("carts.list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.CartItem{}
	for cur.Next(ctx) {
		var d cartDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("carts.list: decode: %w", err)
		}
		out = append(out, d.Item)
	}
	return out, cur.Err()
}

func (r mongoCarts) Find(ctx context.Context, userID, key string) (models.CartItem, error) {
	var d cartDoc
	if err := r.s.col(colCarts).FindOne(ctx, bson.M{"_id": ownedID(userID, key)}).Decode(&d); err != nil {
		return models.CartItem{}, notFound(err, "cart item", key)
	}
	return d.Item, nil
}

func (r mongoCarts) Put(ctx context.Context, userID string, item models.CartItem) error {
	defer metrics.ObserveStoreOp("carts.put", time.Now())

	d := cartDoc{ID: ownedID(userID, item.ID), UserID: userID, Item: item}
	_, err := r.s.col(colCarts).ReplaceOne(ctx, bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cart item %s: %w", item.ID, err)
	}
	return nil
}

func (r mongoCarts) Delete(ctx context.Context, userID, key string) error {
	if _, err := r.s.col(colCarts).DeleteOne(ctx, bson.M{"_id": ownedID(userID, key)}); err != nil {
		return fmt.Errorf("cart item %s: %w", key, err)
	}
	return nil
}

func (r mongoCarts) Clear(ctx context.Context, userID string) error {
	if _, err := r.s.col(colCarts).DeleteMany(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("cart %s: %w", userID, err)
	}
	return nil
}

type favoriteDoc struct {
	ID     string          `bson:"_id"`
	UserID string          `bson:"userId"`
	Fav    models.Favorite `bson:",inline"`
}

type mongoFavorites struct{ s *MongoStore }

func (r mongoFavorites) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	defer metrics.ObserveStoreOp("favorites.list", time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.s.col(colFavorites).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("favorites.list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Favorite{}
	for cur.Next(ctx) {
		var d favoriteDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("favorites.list: decode: %w", err)
		}
		out = append(out, d.Fav)
	}
	return out, cur.Err()
}

func (r mongoFavorites) Put(ctx context.Context, userID string, fav models.Favorite) error {
	d := favoriteDoc{ID: ownedID(userID, fav.ProductID), UserID: userID, Fav: fav}
	_, err := r.s.col(colFavorites).ReplaceOne(ctx, bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("favorite %s: %w", fav.ProductID, err)
	}
	return nil
}

func (r mongoFavorites) Delete(ctx context.Context, userID, productID string) error {
	if _, err := r.s.col(colFavorites).DeleteOne(ctx, bson.M{"_id": ownedID(userID, productID)}); err != nil {
		return fmt.Errorf("favorite %s: %w", productID, err)
	}
	return nil
}

// ─────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────

type mongoUsers struct{ s *MongoStore }

func (r mongoUsers) Create(ctx context.Context, u models.User) error {
	defer metrics.ObserveStoreOp("users.create", time.Now())

	if _, err := r.s.col(colUsers).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
		}
		return fmt.Errorf("user %s: %w", u.Email, err)
	}
	return nil
}

func (r mongoUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := r.s.col(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, notFound(err, "user", id)
	}
	return u, nil
}

func (r mongoUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	defer metrics.ObserveStoreOp("users.find_by_email", time.Now())

	var u models.User
	if err := r.s.col(colUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return models.User{}, notFound(err, "user", email)
	}
	return u, nil
}

func (r mongoUsers) List(ctx context.Context, limit int) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.s.col(colUsers).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("users.list: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("users.list: %w", err)
	}
	return out, nil
}
