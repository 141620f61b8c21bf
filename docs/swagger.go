// Package docs registers the newsharvest OpenAPI document with swag so
// the Swagger UI can serve it.
package docs

import "github.com/swaggo/swag"

// @title newsharvest API
// @version 1.0
// @description Query, enrich and refresh collected financial news datasets
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "newsharvest API",
        "description": "Query, enrich and refresh collected financial news datasets with OData-style parameters",
        "version": "1.0.0",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        }
    },
    "host": "localhost:8080",
    "basePath": "/",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "parameters": {
        "filter": {
            "name": "$filter",
            "in": "query",
            "type": "string",
            "description": "Filter rows, e.g. source eq 'Reuters' and contains(title,'Fed')"
        },
        "select": {
            "name": "$select",
            "in": "query",
            "type": "string",
            "description": "Comma-separated columns to return"
        },
        "search": {
            "name": "$search",
            "in": "query",
            "type": "string",
            "description": "Comma-separated terms matched against title, description, text, source and cleaned_text"
        },
        "top": {
            "name": "$top",
            "in": "query",
            "type": "integer",
            "minimum": 0,
            "description": "Maximum number of rows"
        },
        "skip": {
            "name": "$skip",
            "in": "query",
            "type": "integer",
            "minimum": 0,
            "description": "Number of rows to skip"
        },
        "name": {
            "name": "name",
            "in": "path",
            "required": true,
            "type": "string",
            "description": "Dataset file name, e.g. financial_news.csv"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "operationId": "healthCheck",
                "responses": {
                    "200": {
                        "description": "Service is healthy",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "status": {"type": "string", "example": "healthy"},
                                "service": {"type": "string", "example": "newsharvest"},
                                "collecting": {"type": "boolean"},
                                "cache": {"$ref": "#/definitions/CacheStats"}
                            }
                        }
                    }
                }
            }
        },
        "/api/v1/articles": {
            "get": {
                "tags": ["Dataset"],
                "summary": "Query the canonical dataset",
                "operationId": "getArticles",
                "parameters": [
                    {"$ref": "#/parameters/filter"},
                    {"$ref": "#/parameters/select"},
                    {"$ref": "#/parameters/search"},
                    {"$ref": "#/parameters/top"},
                    {"$ref": "#/parameters/skip"}
                ],
                "responses": {
                    "200": {"description": "Matching rows", "schema": {"$ref": "#/definitions/DatasetPage"}},
                    "400": {"description": "Invalid query"},
                    "404": {"description": "Dataset not collected yet"}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "tags": ["Dataset"],
                "summary": "Summarize the canonical dataset",
                "operationId": "getStats",
                "responses": {
                    "200": {"description": "Dataset statistics", "schema": {"$ref": "#/definitions/DatasetStats"}},
                    "404": {"description": "Dataset not collected yet"}
                }
            }
        },
        "/api/v1/enrich": {
            "post": {
                "tags": ["Enrichment"],
                "summary": "Enrich the canonical dataset in place",
                "operationId": "enrichCanonical",
                "responses": {
                    "200": {"description": "Enrichment report", "schema": {"$ref": "#/definitions/FileReport"}},
                    "404": {"description": "Dataset not collected yet"}
                }
            }
        },
        "/api/v1/datasets": {
            "get": {
                "tags": ["Dataset"],
                "summary": "List dataset files and snapshots",
                "operationId": "listDatasets",
                "responses": {
                    "200": {
                        "description": "Available datasets",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "datasets": {"type": "array", "items": {"$ref": "#/definitions/DatasetEntry"}},
                                "count": {"type": "integer"}
                            }
                        }
                    }
                }
            }
        },
        "/api/v1/datasets/{name}": {
            "get": {
                "tags": ["Dataset"],
                "summary": "Query a dataset file by name",
                "operationId": "getDataset",
                "parameters": [
                    {"$ref": "#/parameters/name"},
                    {"$ref": "#/parameters/filter"},
                    {"$ref": "#/parameters/select"},
                    {"$ref": "#/parameters/search"},
                    {"$ref": "#/parameters/top"},
                    {"$ref": "#/parameters/skip"}
                ],
                "responses": {
                    "200": {"description": "Matching rows", "schema": {"$ref": "#/definitions/DatasetPage"}},
                    "400": {"description": "Invalid name or query"},
                    "404": {"description": "Dataset not found"}
                }
            }
        },
        "/api/v1/datasets/{name}/enrich": {
            "post": {
                "tags": ["Enrichment"],
                "summary": "Enrich a dataset file in place",
                "operationId": "enrichDataset",
                "parameters": [{"$ref": "#/parameters/name"}],
                "responses": {
                    "200": {"description": "Enrichment report", "schema": {"$ref": "#/definitions/FileReport"}},
                    "400": {"description": "Invalid name"},
                    "404": {"description": "Dataset not found"}
                }
            }
        },
        "/api/v1/collect": {
            "post": {
                "tags": ["Collection"],
                "summary": "Start a background collection run",
                "operationId": "startCollection",
                "responses": {
                    "202": {"description": "Run started"},
                    "409": {"description": "A run is already in progress"}
                }
            }
        },
        "/api/v1/collect/status": {
            "get": {
                "tags": ["Collection"],
                "summary": "Current and last collection run",
                "operationId": "getCollectionStatus",
                "responses": {
                    "200": {
                        "description": "Run status",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "running": {"type": "boolean"},
                                "last": {"$ref": "#/definitions/RunSummary"}
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "CacheStats": {
            "type": "object",
            "properties": {
                "entries": {"type": "integer"},
                "hits": {"type": "integer"},
                "misses": {"type": "integer"}
            }
        },
        "DatasetPage": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "columns": {"type": "array", "items": {"type": "string"}},
                "rows": {"type": "array", "items": {"type": "object", "additionalProperties": {"type": "string"}}},
                "count": {"type": "integer"},
                "total": {"type": "integer"},
                "updated": {"type": "string", "format": "date-time"}
            }
        },
        "DatasetStats": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "rows": {"type": "integer"},
                "columns": {"type": "integer"},
                "by_source": {"type": "object", "additionalProperties": {"type": "integer"}},
                "by_method": {"type": "object", "additionalProperties": {"type": "integer"}},
                "with_financial_terms": {"type": "integer"},
                "enriched": {"type": "boolean"},
                "last_modified": {"type": "string", "format": "date-time"}
            }
        },
        "DatasetEntry": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "path": {"type": "string"},
                "file_size": {"type": "integer"},
                "last_modified": {"type": "string", "format": "date-time"}
            }
        },
        "FileReport": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "rows": {"type": "integer"},
                "skipped": {"type": "integer"},
                "changed": {"type": "integer"},
                "added_columns": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "SourceResult": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "method": {"type": "string", "enum": ["api", "feed"]},
                "articles": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "RunSummary": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string", "format": "uuid"},
                "started": {"type": "string", "format": "date-time"},
                "finished": {"type": "string", "format": "date-time"},
                "collected": {"type": "integer"},
                "written": {
                    "type": "object",
                    "properties": {
                        "canonical": {"type": "string"},
                        "snapshot": {"type": "string"},
                        "rows": {"type": "integer"},
                        "duplicates": {"type": "integer"}
                    }
                },
                "snapshots": {"type": "object", "additionalProperties": {"type": "string"}},
                "sources": {"type": "array", "items": {"$ref": "#/definitions/SourceResult"}},
                "by_source": {"type": "object", "additionalProperties": {"type": "integer"}},
                "by_method": {"type": "object", "additionalProperties": {"type": "integer"}},
                "cache": {"$ref": "#/definitions/CacheStats"},
                "error": {"type": "string"}
            }
        }
    },
    "tags": [
        {"name": "Health", "description": "Health check endpoints"},
        {"name": "Dataset", "description": "Read access to collected datasets"},
        {"name": "Enrichment", "description": "Derived column maintenance"},
        {"name": "Collection", "description": "On-demand collection runs"}
    ]
}`
