/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import "errors"

var (

	// Operation errors.

	ErrFailedToScan   = errors.New("failed to scan")
	ErrFailedToQuery  = errors.New("failed to query")
	ErrFailedToInsert = errors.New("failed to insert")
	ErrFailedToDelete = errors.New("failed to delete")
	ErrFailedToInit   = errors.New("failed to initialize schema")

	// Link validation.

	ErrLinkNil             = errors.New("link is nil")
	ErrLinkIDRequired      = errors.New("link id is required")
	ErrLinkOwnerRequired   = errors.New("link owner is required")
	ErrForeignSourceNeeded = errors.New("foreign source is required")

	// CNPG connection settings.

	ErrCNPGConfigNil      = errors.New("cnpg config is nil")
	ErrCNPGHostRequired   = errors.New("cnpg host is required")
	ErrCNPGInvalidSSLMode = errors.New("cnpg: unsupported sslmode")
	ErrCNPGTLSDisabled    = errors.New("cnpg: tls configured but sslmode is disable")
	ErrCNPGTLSIncomplete  = errors.New("cnpg tls: cert_file, key_file, and ca_file are required")
)
