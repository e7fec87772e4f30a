// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the relational schema so
// repositories never spell column names as raw strings. It also carries the
// constraint definitions the in-process store enforces.
package schema
