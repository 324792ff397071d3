package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/util"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is the data access layer over the profiles and posts tables.
type DB struct {
	db     *sql.DB
	driver string
}

var (
	dbInstance *DB
	dbErr      error
	dbOnce     sync.Once
)

const (
	profileColumns = `id, handle, display_name, COALESCE(bio, ''), following, followers, created_at`
	postColumns    = `id, user_id, handle, display_name, content, likes, reposts, replies, created_at`

	//Profiles
	sqlInsertProfile         = `INSERT INTO profiles(id, handle, display_name, bio, following, followers, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlSelectProfileById     = `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`
	sqlSelectProfileByHandle = `SELECT ` + profileColumns + ` FROM profiles WHERE handle = ?`
	sqlSelectAllProfiles     = `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at ASC, handle ASC`
	sqlUpdateFollowing       = `UPDATE profiles SET following = ? WHERE id = ?`
	sqlUpdateFollowers       = `UPDATE profiles SET followers = ? WHERE id = ?`

	//Posts
	sqlInsertPost     = `INSERT INTO posts(user_id, handle, display_name, content, likes, reposts, replies, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	sqlSelectPostById = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`
	sqlSelectAllPosts = `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, id DESC`
	sqlDeletePost     = `DELETE FROM posts WHERE id = ?`

	//Devices
	sqlSelectDevice = `SELECT device_id FROM devices WHERE key_hash = ?`
	sqlUpsertDevice = `INSERT INTO devices(key_hash, device_id, created_at) VALUES (?, ?, ?)
                        ON CONFLICT(key_hash) DO UPDATE SET device_id = excluded.device_id`
)

// GetDB opens the configured store once and runs the schema migrations.
func GetDB(conf *util.AppConfig) (*DB, error) {
	dbOnce.Do(func() {
		if err := conf.Validate(); err != nil {
			dbErr = err
			return
		}

		dsn := conf.Conf.Database.Dsn
		if conf.Conf.Database.Driver == DriverSqlite && dsn != ":memory:" {
			dsn = util.ResolveFilePath(dsn)
		}

		database, err := Open(conf.Conf.Database.Driver, dsn)
		if err != nil {
			dbErr = err
			return
		}

		if err := database.RunMigrations(context.Background()); err != nil {
			database.Close()
			dbErr = err
			return
		}
		dbInstance = database
	})

	return dbInstance, dbErr
}

// Open connects to a store without touching the schema.
func Open(driver string, dsn string) (*DB, error) {
	switch driver {
	case DriverSqlite:
		return openSqlite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSqlite(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if dsn == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)

		var journalMode string
		if err := db.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
			log.Warn("failed to enable WAL mode", "err", err)
		} else {
			log.Debug("database journal mode", "mode", journalMode)
		}
	}

	db.Exec("PRAGMA synchronous = NORMAL")
	db.Exec("PRAGMA busy_timeout = 5000")
	db.Exec("PRAGMA foreign_keys = ON")

	log.Info("database opened", "driver", DriverSqlite, "dsn", dsn)
	return &DB{db: db, driver: DriverSqlite}, nil
}

func openPostgres(dsn string) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach postgres: %w", err)
	}

	log.Info("database opened", "driver", DriverPostgres)
	return &DB{db: db, driver: DriverPostgres}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// mapErr turns driver errors into the domain sentinels callers check for.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}

	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.Id, &p.Handle, &p.DisplayName, &p.Bio, &p.Following, &p.Followers, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.Id, &p.AuthorId, &p.Handle, &p.DisplayName, &p.Content, &p.Likes, &p.Reposts, &p.Replies, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) ReadProfileById(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := scanProfile(db.db.QueryRowContext(ctx, db.rebind(sqlSelectProfileById), id.String()))
	return p, mapErr(err)
}

func (db *DB) ReadProfileByHandle(ctx context.Context, handle string) (*domain.Profile, error) {
	p, err := scanProfile(db.db.QueryRowContext(ctx, db.rebind(sqlSelectProfileByHandle), handle))
	return p, mapErr(err)
}

func (db *DB) ReadAllProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := db.db.QueryContext(ctx, db.rebind(sqlSelectAllProfiles))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (db *DB) CreateProfile(ctx context.Context, p *domain.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, db.rebind(sqlInsertProfile),
			p.Id.String(),
			p.Handle,
			p.DisplayName,
			p.Bio,
			p.Following,
			p.Followers,
			p.CreatedAt,
		)
		return mapErr(err)
	})
}

func (db *DB) UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) error {
	if patch.Empty() {
		return nil
	}

	var sets []string
	var args []any
	if patch.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *patch.DisplayName)
	}
	if patch.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *patch.Bio)
	}
	if patch.Following != nil {
		sets = append(sets, "following = ?")
		args = append(args, *patch.Following)
	}
	if patch.Followers != nil {
		sets = append(sets, "followers = ?")
		args = append(args, *patch.Followers)
	}
	args = append(args, id.String())
	query := "UPDATE profiles SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, db.rebind(query), args...)
	})
}

// UpdateFollow writes both sides of a follow change in one transaction.
func (db *DB) UpdateFollow(ctx context.Context, change domain.FollowChange) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		if err := execOne(ctx, tx, db.rebind(sqlUpdateFollowing), change.Following, change.FollowerId.String()); err != nil {
			return fmt.Errorf("following of %s: %w", change.FollowerId, err)
		}
		if err := execOne(ctx, tx, db.rebind(sqlUpdateFollowers), change.Followers, change.TargetId.String()); err != nil {
			return fmt.Errorf("followers of %s: %w", change.TargetId, err)
		}
		return nil
	})
}

// RepairFollowers replaces the followers lists of the given profiles in one
// transaction.
func (db *DB) RepairFollowers(ctx context.Context, fixes map[uuid.UUID]domain.HandleSet) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		for id, followers := range fixes {
			if err := execOne(ctx, tx, db.rebind(sqlUpdateFollowers), followers, id.String()); err != nil {
				return fmt.Errorf("followers of %s: %w", id, err)
			}
		}
		return nil
	})
}

func (db *DB) ReadAllPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := db.db.QueryContext(ctx, db.rebind(sqlSelectAllPosts))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (db *DB) ReadPostById(ctx context.Context, id int64) (*domain.Post, error) {
	p, err := scanPost(db.db.QueryRowContext(ctx, db.rebind(sqlSelectPostById), id))
	return p, mapErr(err)
}

func (db *DB) CreatePost(ctx context.Context, save *domain.SavePost) (*domain.Post, error) {
	post := &domain.Post{
		AuthorId:    save.AuthorId,
		Handle:      save.Handle,
		DisplayName: save.DisplayName,
		Content:     save.Content,
		CreatedAt:   now(),
		Likes:       domain.HandleSet{},
		Reposts:     domain.HandleSet{},
		Replies:     domain.Replies{},
	}

	err := db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, db.rebind(sqlInsertPost),
			post.AuthorId.String(),
			post.Handle,
			post.DisplayName,
			post.Content,
			post.Likes,
			post.Reposts,
			post.Replies,
			post.CreatedAt,
		)
		return mapErr(row.Scan(&post.Id))
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (db *DB) UpdatePost(ctx context.Context, id int64, patch domain.PostPatch) error {
	if patch.Empty() {
		return nil
	}

	var sets []string
	var args []any
	if patch.Likes != nil {
		sets = append(sets, "likes = ?")
		args = append(args, *patch.Likes)
	}
	if patch.Reposts != nil {
		sets = append(sets, "reposts = ?")
		args = append(args, *patch.Reposts)
	}
	if patch.Replies != nil {
		sets = append(sets, "replies = ?")
		args = append(args, *patch.Replies)
	}
	args = append(args, id)
	query := "UPDATE posts SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, db.rebind(query), args...)
	})
}

func (db *DB) DeletePost(ctx context.Context, id int64) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, db.rebind(sqlDeletePost), id)
	})
}

// ReadDeviceId returns the device identifier bound to an SSH key hash.
func (db *DB) ReadDeviceId(ctx context.Context, keyHash string) (string, error) {
	var id string
	err := db.db.QueryRowContext(ctx, db.rebind(sqlSelectDevice), keyHash).Scan(&id)
	return id, mapErr(err)
}

func (db *DB) WriteDeviceId(ctx context.Context, keyHash string, deviceId string) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, db.rebind(sqlUpsertDevice), keyHash, deviceId, now())
		return mapErr(err)
	})
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// wrapTransaction runs the given function within a transaction.
func (db *DB) wrapTransaction(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("error starting transaction", "err", err)
		return err
	}
	if err = f(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("error rolling back transaction", "err", rbErr)
		}
		log.Debug("transaction rolled back", "err", err)
		return err
	}
	if err = tx.Commit(); err != nil {
		log.Error("error committing transaction", "err", err)
		return err
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC().Round(time.Microsecond)
}
