package db

const translationTable = "translation"

// SchemaSQL defines the translation history table.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS translation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS source_text ON translation TYPE string;
    DEFINE FIELD IF NOT EXISTS translated_text ON translation TYPE string;
    DEFINE FIELD IF NOT EXISTS source_language ON translation TYPE string;
    DEFINE FIELD IF NOT EXISTS target_language ON translation TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON translation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS translation_created ON translation FIELDS created_at;
`
