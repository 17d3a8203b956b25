package sqlinline

const QEnsureBatchArchive = `--sql 7d0f3c1e-5b8a-4e62-9c14-3a9e2f6b8d51
create table if not exists slide_batches (
  batch_id      uuid primary key,
  status        text not null,
  total_slides  int not null,
  successful    int not null,
  failed        int not null,
  max_workers   int not null,
  aspect_ratio  text not null,
  started_at    timestamptz not null,
  finished_at   timestamptz,
  snapshot      jsonb not null,
  archived_at   timestamptz not null default now()
);
create index if not exists slide_batches_started_at_idx on slide_batches (started_at desc);
`

const QArchiveBatch = `--sql 2e9b6d47-0c3f-4a1d-8b52-6f7e1c9a4d08
insert into slide_batches (
  batch_id, status, total_slides, successful, failed,
  max_workers, aspect_ratio, started_at, finished_at, snapshot
)
values ($1::uuid, $2::text, $3::int, $4::int, $5::int, $6::int, $7::text, $8::timestamptz, $9::timestamptz, $10::jsonb)
on conflict (batch_id) do update
set status       = excluded.status,
    successful   = excluded.successful,
    failed       = excluded.failed,
    finished_at  = excluded.finished_at,
    snapshot     = excluded.snapshot,
    archived_at  = now();
`

const QRecentBatches = `--sql a4c81f36-9e2d-47b5-b0a3-58d6e7f19c2b
select batch_id, status, total_slides, successful, failed,
       max_workers, aspect_ratio, started_at, finished_at, archived_at
from slide_batches
where ($2::text = '' or status = $2::text)
order by started_at desc
limit $1::int;
`

const QArchivedBatch = `--sql 5b3e9a70-1d4c-4f86-a2e9-0c7b6d8f3e14
select snapshot
from slide_batches
where batch_id = $1::uuid;
`
