package db

// SchemaSQL contains the table and index definitions for crawled content.
// All statements are idempotent so the schema can be re-applied at startup.
const SchemaSQL = `
    -- ==========================================================================
    -- SOURCE TABLE
    -- ==========================================================================
    -- One record per crawled origin, keyed by the derived source_id.
    DEFINE TABLE IF NOT EXISTS source SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS source_id ON source TYPE string;
    DEFINE FIELD IF NOT EXISTS display_name ON source TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS url ON source TYPE string;
    DEFINE FIELD IF NOT EXISTS summary ON source TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS word_count ON source TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS crawl_status ON source TYPE string DEFAULT 'pending';
    DEFINE FIELD IF NOT EXISTS knowledge_type ON source TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS tags ON source TYPE option<array<string>>;
    DEFINE FIELD IF NOT EXISTS created_at ON source TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON source TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS source_source_id ON source FIELDS source_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS source_crawl_status ON source FIELDS crawl_status;

    -- ==========================================================================
    -- DOCUMENT CHUNK TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS document_chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS source_id ON document_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS url ON document_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS position ON document_chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS content ON document_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS heading_path ON document_chunk TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS embedding ON document_chunk TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created_at ON document_chunk TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS chunk_source_id ON document_chunk FIELDS source_id;
    DEFINE INDEX IF NOT EXISTS chunk_embedding ON document_chunk FIELDS embedding HNSW DIMENSION 384 DIST COSINE TYPE F32;
    DEFINE ANALYZER IF NOT EXISTS chunk_analyzer TOKENIZERS class FILTERS lowercase, ascii, snowball(english);
    DEFINE INDEX IF NOT EXISTS chunk_content_ft ON document_chunk FIELDS content FULLTEXT ANALYZER chunk_analyzer BM25;

    -- ==========================================================================
    -- CODE EXAMPLE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS code_example SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS source_id ON code_example TYPE string;
    DEFINE FIELD IF NOT EXISTS url ON code_example TYPE string;
    DEFINE FIELD IF NOT EXISTS language ON code_example TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS code ON code_example TYPE string;
    DEFINE FIELD IF NOT EXISTS summary ON code_example TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS embedding ON code_example TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS created_at ON code_example TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS example_source_id ON code_example FIELDS source_id;
    DEFINE INDEX IF NOT EXISTS example_embedding ON code_example FIELDS embedding HNSW DIMENSION 384 DIST COSINE TYPE F32;
`
