/*
SPDX-License-Identifier: Apache-2.0
*/

// Package pageindex implements an append-only key index split into pages of
// a fixed size. Used for allowlist entries, auction bids and raffle ticket
// positions.
package pageindex

import (
	"fmt"
	"strconv"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

const indexObjectType = "index"

// Header holds the page size snapshot taken at creation and the number of
// keys appended so far.
type Header struct {
	PageSize uint32 `json:"pageSize"`
	Count    uint64 `json:"count"`
}

// Page is one block of at most PageSize keys, in insertion order.
type Page struct {
	PageID uint64   `json:"pageId"`
	Keys   []string `json:"keys"`
}

// Index is an open handle on a paginated index inside a transition.
type Index struct {
	tx     *ledger.Tx
	path   []string
	header Header
}

// PageID returns the page holding the global position count.
func PageID(count uint64, pageSize uint32) uint64 {
	return count / uint64(pageSize)
}

func headerKey(tx *ledger.Tx, path []string) (string, error) {
	return tx.Key(indexObjectType, append(append([]string{}, path...), "header")...)
}

func (ix *Index) pageKey(pageID uint64) (string, error) {
	attrs := append(append([]string{}, ix.path...), "page", strconv.FormatUint(pageID, 10))
	return ix.tx.Key(indexObjectType, attrs...)
}

// Create starts an empty index at path with the given page size.
func Create(tx *ledger.Tx, pageSize uint32, path ...string) (*Index, error) {
	if pageSize == 0 {
		return nil, protocol.ErrInvalidIndexPageSize
	}
	key, err := headerKey(tx, path)
	if err != nil {
		return nil, err
	}
	exists, err := tx.Exists(key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("index %v already exists", path)
	}
	ix := &Index{tx: tx, path: path, header: Header{PageSize: pageSize}}
	if errPut := tx.Put(key, &ix.header); errPut != nil {
		return nil, errPut
	}
	return ix, nil
}

// Open loads the index at path.
func Open(tx *ledger.Tx, path ...string) (*Index, error) {
	key, err := headerKey(tx, path)
	if err != nil {
		return nil, err
	}
	ix := &Index{tx: tx, path: path}
	found, err := tx.Get(key, &ix.header)
	if err != nil {
		return nil, fmt.Errorf("could not get index %v: %w", path, err)
	}
	if !found {
		return nil, fmt.Errorf("index %v does not exist", path)
	}
	return ix, nil
}

// Len returns the number of keys in the index.
func (ix *Index) Len() uint64 {
	return ix.header.Count
}

// CurrentPage returns the id of the page the next key goes to.
func (ix *Index) CurrentPage() uint64 {
	return PageID(ix.header.Count, ix.header.PageSize)
}

// Append adds key to the current page. A non-nil pageHint must name the
// current page, otherwise the caller is working from a stale count.
func (ix *Index) Append(pageHint *uint64, key string) (uint64, uint32, error) {
	pageID := ix.CurrentPage()
	if pageHint != nil && *pageHint != pageID {
		return 0, 0, fmt.Errorf("page %d, current page %d: %w", *pageHint, pageID, protocol.ErrInvalidIndexPage)
	}

	page, err := ix.Page(pageID)
	if err != nil {
		return 0, 0, err
	}
	offset := uint32(len(page.Keys))
	page.Keys = append(page.Keys, key)

	pageKey, err := ix.pageKey(pageID)
	if err != nil {
		return 0, 0, err
	}
	if errPut := ix.tx.Put(pageKey, page); errPut != nil {
		return 0, 0, errPut
	}

	ix.header.Count++
	hkey, err := headerKey(ix.tx, ix.path)
	if err != nil {
		return 0, 0, err
	}
	if errPut := ix.tx.Put(hkey, &ix.header); errPut != nil {
		return 0, 0, errPut
	}
	return pageID, offset, nil
}

// Page loads page pageID. Pages past the end are returned empty.
func (ix *Index) Page(pageID uint64) (*Page, error) {
	key, err := ix.pageKey(pageID)
	if err != nil {
		return nil, err
	}
	page := &Page{PageID: pageID}
	if _, errGet := ix.tx.Get(key, page); errGet != nil {
		return nil, fmt.Errorf("could not get index page %d: %w", pageID, errGet)
	}
	if page.Keys == nil {
		page.Keys = []string{}
	}
	return page, nil
}

// KeyAt returns the key at global position i.
func (ix *Index) KeyAt(i uint64) (string, error) {
	if i >= ix.header.Count {
		return "", fmt.Errorf("index position %d out of range [0, %d)", i, ix.header.Count)
	}
	size := uint64(ix.header.PageSize)
	page, err := ix.Page(i / size)
	if err != nil {
		return "", err
	}
	offset := i % size
	if offset >= uint64(len(page.Keys)) {
		return "", fmt.Errorf("index page %d is missing position %d", page.PageID, i)
	}
	return page.Keys[offset], nil
}

// Iterator walks the keys present when it was created, page by page.
type Iterator struct {
	ix    *Index
	total uint64
	next  uint64
	page  *Page
}

// Iterator returns an iterator positioned before the first key.
func (ix *Index) Iterator() *Iterator {
	return &Iterator{ix: ix, total: ix.header.Count}
}

// HasNext reports whether Next has another key to return.
func (it *Iterator) HasNext() bool {
	return it.next < it.total
}

// Next returns the next key and its global position.
func (it *Iterator) Next() (uint64, string, error) {
	if !it.HasNext() {
		return 0, "", fmt.Errorf("iterator exhausted")
	}
	size := uint64(it.ix.header.PageSize)
	pageID := it.next / size
	if it.page == nil || it.page.PageID != pageID {
		page, err := it.ix.Page(pageID)
		if err != nil {
			return 0, "", err
		}
		it.page = page
	}
	offset := it.next % size
	if offset >= uint64(len(it.page.Keys)) {
		return 0, "", fmt.Errorf("index page %d is missing position %d", pageID, it.next)
	}
	position := it.next
	it.next++
	return position, it.page.Keys[offset], nil
}
