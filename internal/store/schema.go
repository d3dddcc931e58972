package store

import "github.com/cesargomez89/photodex/internal/constants"

// nowSQL renders the current time in the same text layout Go writes.
const nowSQL = `(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`

const migrationsTable = `
CREATE TABLE IF NOT EXISTS ` + constants.MigrationsTable + ` (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TEXT NOT NULL DEFAULT ` + nowSQL + `
);
`

type migration struct {
	version     int
	description string
	sql         string
}

// migrations run in order; each one is applied at most once.
var migrations = []migration{
	{
		version:     1,
		description: "create images",
		sql: `
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT UNIQUE NOT NULL,
	filename TEXT NOT NULL,
	fileSize INTEGER NOT NULL DEFAULT 0,
	mimeType TEXT,
	lastModified TEXT,
	dateTimeOriginal TEXT,
	gpsLatitude TEXT,  -- JSON [d, m, s]
	gpsLongitude TEXT, -- JSON [d, m, s]
	gpsAltitude REAL,
	metadata TEXT NOT NULL, -- JSON object
	createdAt TEXT NOT NULL DEFAULT ` + nowSQL + `,
	updatedAt TEXT NOT NULL DEFAULT ` + nowSQL + `
);

CREATE INDEX IF NOT EXISTS idx_images_path ON images(path);
CREATE INDEX IF NOT EXISTS idx_images_date ON images(dateTimeOriginal);
CREATE INDEX IF NOT EXISTS idx_images_gps ON images(gpsLatitude, gpsLongitude);
`,
	},
	{
		version:     2,
		description: "create albums",
		sql: `
CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	description TEXT,
	coverImageId INTEGER REFERENCES images(id) ON DELETE SET NULL,
	createdAt TEXT NOT NULL DEFAULT ` + nowSQL + `
);

CREATE TABLE IF NOT EXISTS album_images (
	albumId INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
	imageId INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
	addedAt TEXT NOT NULL DEFAULT ` + nowSQL + `,
	PRIMARY KEY (albumId, imageId)
);

CREATE INDEX IF NOT EXISTS idx_album_images_image ON album_images(imageId);
`,
	},
}
