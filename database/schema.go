package database

const Schema = `
CREATE TABLE IF NOT EXISTS collectibles (
	id                  BIGSERIAL PRIMARY KEY,
	name                TEXT NOT NULL UNIQUE,
	rarity              DOUBLE PRECISION NOT NULL DEFAULT 1,
	enabled             BOOLEAN NOT NULL DEFAULT TRUE,
	wild_card           TEXT NOT NULL,
	collection_card     TEXT NOT NULL,
	attack              INTEGER NOT NULL,
	health              INTEGER NOT NULL,
	ability_name        TEXT NOT NULL DEFAULT '',
	ability_description TEXT NOT NULL DEFAULT '',
	regime              SMALLINT NOT NULL,
	economy             SMALLINT NOT NULL
);

CREATE TABLE IF NOT EXISTS players (
	id         BIGSERIAL PRIMARY KEY,
	discord_id TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS specials (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	catch_phrase TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS instances (
	id             BIGSERIAL PRIMARY KEY,
	collectible_id BIGINT NOT NULL REFERENCES collectibles (id) ON DELETE CASCADE,
	player_id      BIGINT NOT NULL REFERENCES players (id) ON DELETE CASCADE,
	shiny          BOOLEAN NOT NULL DEFAULT FALSE,
	attack_bonus   INTEGER NOT NULL DEFAULT 0,
	health_bonus   INTEGER NOT NULL DEFAULT 0,
	special_id     BIGINT REFERENCES specials (id) ON DELETE SET NULL,
	catch_date     TIMESTAMPTZ NOT NULL DEFAULT now(),
	spawned_at     TIMESTAMPTZ,
	server_id      TEXT
);

CREATE INDEX IF NOT EXISTS instances_player_collectible ON instances (player_id, collectible_id);
`
